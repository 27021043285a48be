/*package topology computes the implicit topology of a 2D vector field: it
advects a growing set of seed particles forward and backward through the
field, classifies their long-term fate against the field's convergence
structures, and adaptively refines a Delaunay triangulation of the domain
where neighboring seeds disagree.

The computation runs on a single background goroutine per Computation and
publishes an immutable Result snapshot after every round. Callers poll
Results without ever blocking the worker.
*/
package topology

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"sync"
	"time"

	"github.com/flowvis/gotopo/advect"
	"github.com/flowvis/gotopo/field"
	"github.com/flowvis/gotopo/integrate"
	"github.com/flowvis/gotopo/mesh"
)

// Params are the integration parameters fixed for the lifetime of a
// computation.
type Params struct {
	Method            integrate.Method
	Timestep          float32
	MaxError          float32
	FinalPositionOnly bool
}

// StartOptions control one run of the computation loop.
type StartOptions struct {
	// TotalSteps is the integration step budget, counted from the
	// computation's creation (a resumed computation has already consumed
	// part of it).
	TotalSteps int

	// RefinementThreshold is the minimum edge length: edges at or below
	// it are never subdivided, which bounds the number of refinement
	// rounds.
	RefinementThreshold float32

	// RefineAtLabels subdivides edges whose endpoints disagree in their
	// combined forward/backward labels.
	RefineAtLabels bool

	// DistanceDifferenceThreshold subdivides edges whose endpoint
	// distances differ by more than this.
	DistanceDifferenceThreshold float32

	// ParticlesPerBatch bounds the transient buffer size of one backend
	// invocation. Memory control only; results are batch-size invariant.
	ParticlesPerBatch int

	// StepsPerBatch is the number of integration steps per round, after
	// which an intermediate result is published.
	StepsPerBatch int
}

// Computation owns the full working state of one implicit-topology run.
// All mutable state is owned by the worker goroutine while a run is in
// progress; the caller only ever sees immutable snapshots.
type Computation struct {
	ctx    *field.Context
	params Params

	backend advect.Backend

	seeds    []float32
	fwd, bwd *advect.Particles
	domain   *mesh.Mesh

	stepsPerformed int

	mu       sync.Mutex
	cur      *Future
	running  bool
	canceled bool
	cancel   chan struct{}
	done     chan struct{}

	logger *log.Logger
	perf   io.Writer

	timeIntegration time.Duration
	timeRefinement  time.Duration
	started         time.Time
}

// New builds a computation from a vector field, the seed positions
// (2 floats per seed; field.Nodes gives the conventional choice) and the
// convergence structures. Input errors are reported synchronously and
// leave no usable computation behind.
func New(logW, perfW io.Writer, f field.Field, seeds []float32,
	s field.Structures, p Params) (*Computation, error) {

	c, err := newComputation(logW, perfW, f, seeds, s, p)
	if err != nil {
		return nil, err
	}

	c.fwd = advect.NewParticles(seeds)
	c.bwd = advect.NewParticles(seeds)
	c.cur = resolvedFuture(c.snapshot(false), nil)

	return c, nil
}

// NewFromResult builds a computation that resumes from a previous
// snapshot: seed positions, labels, distances, terminations, parameters
// and the step counter are all restored, so continuing is
// indistinguishable from never having paused.
func NewFromResult(logW, perfW io.Writer, f field.Field, s field.Structures,
	prev *Result) (*Computation, error) {

	p := Params{
		Method:            prev.State.Method,
		Timestep:          prev.State.Timestep,
		MaxError:          prev.State.MaxError,
		FinalPositionOnly: prev.State.FinalPositionOnly,
	}

	c, err := newComputation(logW, perfW, f, prev.Vertices, s, p)
	if err != nil {
		return nil, err
	}
	if err := checkResult(prev); err != nil {
		return nil, err
	}

	c.fwd = &advect.Particles{
		Pos:    append([]float32(nil), prev.PositionsForward...),
		Labels: append([]int32(nil), prev.LabelsForward...),
		Dists:  append([]float32(nil), prev.DistancesForward...),
		Terms:  append([]integrate.Termination(nil), prev.TerminationsForward...),
	}
	c.bwd = &advect.Particles{
		Pos:    append([]float32(nil), prev.PositionsBackward...),
		Labels: append([]int32(nil), prev.LabelsBackward...),
		Dists:  append([]float32(nil), prev.DistancesBackward...),
		Terms:  append([]integrate.Termination(nil), prev.TerminationsBackward...),
	}
	c.stepsPerformed = prev.State.StepsPerformed
	c.cur = resolvedFuture(c.snapshot(false), nil)

	return c, nil
}

func newComputation(logW, perfW io.Writer, f field.Field, seeds []float32,
	s field.Structures, p Params) (*Computation, error) {

	if p.Timestep <= 0 {
		return nil, fmt.Errorf("topology: timestep %g, must be positive", p.Timestep)
	}
	if p.Method == integrate.RK45 && p.MaxError <= 0 {
		return nil, fmt.Errorf(
			"topology: maximum error %g, must be positive for Runge-Kutta 4-5",
			p.MaxError,
		)
	}
	if len(seeds) == 0 || len(seeds)%2 != 0 {
		return nil, fmt.Errorf("topology: %d seed components, need a nonzero multiple of 2",
			len(seeds))
	}

	ctx, err := field.NewContext(f, s, p.MaxError)
	if err != nil {
		return nil, err
	}

	if logW == nil {
		logW = ioutil.Discard
	}
	if perfW == nil {
		perfW = ioutil.Discard
	}

	return &Computation{
		ctx:     ctx,
		params:  p,
		backend: advect.CPU{},
		seeds:   append([]float32(nil), seeds...),
		domain:  mesh.FromVertices(seeds),
		logger:  log.New(logW, "", log.LstdFlags),
		perf:    perfW,
	}, nil
}

func checkResult(r *Result) error {
	n := r.Len()
	ok := len(r.PositionsForward) == 2*n && len(r.PositionsBackward) == 2*n &&
		len(r.LabelsForward) == n && len(r.LabelsBackward) == n &&
		len(r.DistancesForward) == n && len(r.DistancesBackward) == n &&
		len(r.TerminationsForward) == n && len(r.TerminationsBackward) == n
	if !ok {
		return fmt.Errorf("topology: inconsistent result snapshot for %d vertices", n)
	}
	return nil
}

// SetBackend replaces the parallel advection backend (default: the CPU
// worker pool). Must be called before Start.
func (c *Computation) SetBackend(b advect.Backend) { c.backend = b }

func (opts StartOptions) validate() error {
	if opts.TotalSteps < 0 {
		return fmt.Errorf("topology: step budget %d, must not be negative", opts.TotalSteps)
	}
	if opts.RefinementThreshold <= 0 {
		return fmt.Errorf("topology: refinement threshold %g, must be positive",
			opts.RefinementThreshold)
	}
	if opts.DistanceDifferenceThreshold < 0 {
		return fmt.Errorf("topology: distance difference threshold %g, must not be negative",
			opts.DistanceDifferenceThreshold)
	}
	if opts.ParticlesPerBatch <= 0 {
		return fmt.Errorf("topology: batch size %d, must be positive", opts.ParticlesPerBatch)
	}
	if opts.StepsPerBatch <= 0 {
		return fmt.Errorf("topology: steps per batch %d, must be positive", opts.StepsPerBatch)
	}
	return nil
}

// Start spawns the background worker. It fails if a run is already in
// progress. A computation whose worker has exited may be started again to
// continue with a larger step budget.
func (c *Computation) Start(opts StartOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("topology: computation already running")
	}

	c.running = true
	c.canceled = false
	c.cancel = make(chan struct{})
	c.done = make(chan struct{})
	c.cur = newFuture()

	c.started = time.Now()
	fmt.Fprintf(c.perf, "steps,particles,integration_ms,refinement_ms,total_ms\n")

	go c.run(opts, c.cancel, c.done)

	return nil
}

// Terminate requests a cooperative stop and waits for the worker to exit.
// Cancellation is checked at round boundaries only, so the worst-case
// latency is one round (bounded by StepsPerBatch). Safe to call when the
// computation never ran or has already finished.
func (c *Computation) Terminate() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	if !c.canceled {
		close(c.cancel)
		c.canceled = true
	}
	done := c.done
	c.mu.Unlock()

	<-done
}

// Results returns the currently outstanding future. Before the first
// round (and after the last) the future is already resolved; in between
// it resolves when the next round completes. Calling it never blocks.
func (c *Computation) Results() *Future {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// run is the worker loop: advect unresolved particles forward and
// backward for one round, merge the results into the triangulation,
// refine, publish, repeat until the step budget is consumed, nothing is
// active anymore, or the run is canceled.
func (c *Computation) run(opts StartOptions, cancel, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		close(done)
	}()

	kernel := integrate.Params{
		Method:            c.params.Method,
		Timestep:          c.params.Timestep,
		FinalPositionOnly: c.params.FinalPositionOnly,
	}

	for c.stepsPerformed < opts.TotalSteps {
		select {
		case <-cancel:
			c.logger.Printf("topology: computation terminated after %d steps",
				c.stepsPerformed)
			c.publish(true)
			return
		default:
		}

		steps := opts.StepsPerBatch
		if remaining := opts.TotalSteps - c.stepsPerformed; steps > remaining {
			steps = remaining
		}

		t0 := time.Now()
		err := advect.Dispatch(c.backend, c.ctx, c.fwd, steps,
			opts.ParticlesPerBatch, integrate.Forward, kernel)
		if err == nil {
			err = advect.Dispatch(c.backend, c.ctx, c.bwd, steps,
				opts.ParticlesPerBatch, integrate.Backward, kernel)
		}
		c.timeIntegration += time.Since(t0)

		if err != nil {
			c.fail(err)
			return
		}

		c.stepsPerformed += steps

		t0 = time.Now()
		added := c.refineGrid(opts)
		c.timeRefinement += time.Since(t0)

		c.logger.Printf(
			"topology: %d/%d steps, %d seeds (%d new, %d still active)",
			c.stepsPerformed, opts.TotalSteps, c.fwd.Len(), added,
			c.fwd.Active()+c.bwd.Active(),
		)
		c.printPerformance()

		c.publish(false)

		if added == 0 && c.fwd.Active() == 0 && c.bwd.Active() == 0 {
			c.logger.Printf("topology: converged, no active particles left")
			break
		}
	}

	c.logger.Printf("topology: computation finished after %d steps", c.stepsPerformed)
	c.publish(true)
}

// snapshot copies the full working state into an immutable Result.
func (c *Computation) snapshot(finished bool) *Result {
	return &Result{
		Vertices: append([]float32(nil), c.seeds...),
		Indices:  c.domain.Triangles(),

		PositionsForward:  append([]float32(nil), c.fwd.Pos...),
		PositionsBackward: append([]float32(nil), c.bwd.Pos...),

		LabelsForward:  append([]int32(nil), c.fwd.Labels...),
		LabelsBackward: append([]int32(nil), c.bwd.Labels...),

		DistancesForward:  append([]float32(nil), c.fwd.Dists...),
		DistancesBackward: append([]float32(nil), c.bwd.Dists...),

		TerminationsForward:  append([]integrate.Termination(nil), c.fwd.Terms...),
		TerminationsBackward: append([]integrate.Termination(nil), c.bwd.Terms...),

		Finished: finished,
		State: State{
			Method:            c.params.Method,
			Timestep:          c.params.Timestep,
			MaxError:          c.params.MaxError,
			FinalPositionOnly: c.params.FinalPositionOnly,
			StepsPerformed:    c.stepsPerformed,
		},
	}
}

// publish resolves the outstanding future with a fresh snapshot. For
// intermediate results a new pending future replaces it; the final
// snapshot stays resolved. The swap happens under the lock, so a caller
// never observes a half-published result.
func (c *Computation) publish(finished bool) {
	r := c.snapshot(finished)

	c.mu.Lock()
	f := c.cur
	if !finished {
		c.cur = newFuture()
	}
	c.mu.Unlock()

	f.resolve(r, nil)
}

// fail resolves the outstanding future with the error so that a worker
// crash never leaves a caller blocked.
func (c *Computation) fail(err error) {
	c.logger.Printf("topology: computation failed: %v", err)

	c.mu.Lock()
	f := c.cur
	c.mu.Unlock()

	f.resolve(nil, err)
}

// printPerformance writes one CSV row with cumulative per-phase times.
func (c *Computation) printPerformance() {
	total := time.Since(c.started)
	fmt.Fprintf(c.perf, "%d,%d,%d,%d,%d\n",
		c.stepsPerformed, c.fwd.Len(),
		c.timeIntegration.Milliseconds(),
		c.timeRefinement.Milliseconds(),
		total.Milliseconds(),
	)
}
