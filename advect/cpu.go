package advect

import (
	"runtime"

	"github.com/flowvis/gotopo/field"
	"github.com/flowvis/gotopo/integrate"
)

// NumCores is the number of worker goroutines the CPU backend uses per
// batch. Default is the number of logical cores.
var NumCores = runtime.NumCPU()

// CPU advects batches on a pool of worker goroutines. It is the portable
// ParallelAdvectionBackend; device backends satisfy the same interface.
type CPU struct{}

func (CPU) Advect(c *field.Context, b *Batch, steps int,
	dir integrate.Direction, p integrate.Params) error {

	workers := NumCores
	if workers > b.Len() {
		workers = b.Len()
	}
	if workers < 1 {
		workers = 1
	}

	out := make(chan int, workers)

	for id := 0; id < workers-1; id++ {
		go advectChunk(id, workers, c, b, steps, dir, p, out)
	}
	advectChunk(workers-1, workers, c, b, steps, dir, p, out)

	for i := 0; i < workers; i++ {
		<-out
	}

	return nil
}

// advectChunk advects the particles with index id, id+workers, ... The
// strided partition keeps every worker's index set disjoint, so no
// synchronization is needed inside a batch.
func advectChunk(id, workers int, c *field.Context, b *Batch, steps int,
	dir integrate.Direction, p integrate.Params, out chan<- int) {

	for i := id; i < b.Len(); i += workers {
		s := integrate.State{
			X: b.Pos[2*i], Y: b.Pos[2*i+1],
			Label: b.Labels[i], Dist: b.Dists[i], Term: b.Terms[i],
		}

		integrate.Advance(c, &s, steps, dir, p)

		b.Pos[2*i], b.Pos[2*i+1] = s.X, s.Y
		b.Labels[i], b.Dists[i], b.Terms[i] = s.Label, s.Dist, s.Term
	}

	out <- id
}
