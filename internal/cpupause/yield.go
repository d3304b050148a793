package cpupause

import "runtime"

// Yield cooperatively yields the current goroutine to the scheduler. It is
// the Go equivalent of the C backoff helper's sched_yield() call, used once
// the MWMR slot-safety wait has exhausted its CPU-pause spin budget.
func Yield() {
	runtime.Gosched()
}
