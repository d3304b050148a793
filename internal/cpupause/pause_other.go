//go:build !amd64 && !arm64

package cpupause

// Pause is a no-op spin hint on architectures without a dedicated
// busy-wait instruction known to this package.
func Pause() {}
