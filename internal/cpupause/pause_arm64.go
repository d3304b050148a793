//go:build arm64

package cpupause

// Pause issues the arm64 YIELD instruction, the architectural equivalent of
// x86's PAUSE for a busy-wait spin loop.
func Pause() {
	pauseAsm()
}

// pauseAsm is implemented in pause_arm64.s.
func pauseAsm()
