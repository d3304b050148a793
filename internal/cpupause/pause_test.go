package cpupause

import "testing"

func TestPauseAndYieldDoNotPanic(t *testing.T) {
	for i := 0; i < SpinIterations; i++ {
		Pause()
	}
	Yield()
}
