//go:build amd64

package cpupause

// Pause issues the x86 PAUSE instruction, which hints to the core that the
// current goroutine is in a spin-wait loop. This reduces power draw and
// avoids memory-order mis-speculation penalties on the contended cache line.
func Pause() {
	pauseAsm()
}

// pauseAsm is implemented in pause_amd64.s.
func pauseAsm()
