package topology

// Future delivers one computation snapshot. The worker resolves it at a
// round boundary; any number of callers may wait on Done or block in Get.
// Waiting never blocks the worker.
type Future struct {
	done chan struct{}
	res  *Result
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(r *Result, err error) *Future {
	f := newFuture()
	f.resolve(r, err)
	return f
}

// Done is closed once the snapshot is available. Callers needing a bounded
// wait should select on Done together with their own timeout.
func (f *Future) Done() <-chan struct{} { return f.done }

// Get blocks until the snapshot is available and returns it. The returned
// Result is owned by the caller; the computation keeps its own working
// state separately.
func (f *Future) Get() (*Result, error) {
	<-f.done
	return f.res, f.err
}

func (f *Future) resolve(r *Result, err error) {
	f.res, f.err = r, err
	close(f.done)
}
