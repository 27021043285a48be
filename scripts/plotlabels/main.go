/*plotlabels renders a stored topology result as a scatter plot of seed
points colored by their combined forward/backward label.

Usage: plotlabels result.topo out.png
*/
package main

import (
	"fmt"
	"log"
	"os"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/flowvis/gotopo/integrate"
	"github.com/flowvis/gotopo/io"
	"github.com/flowvis/gotopo/topology"
)

var colors = []string{"b", "g", "r", "c", "m", "y"}

func main() {
	if len(os.Args) != 3 {
		log.Fatal("Usage: plotlabels result.topo out.png")
	}

	res, err := io.LoadResult(os.Args[1])
	if err != nil {
		log.Fatal(err.Error())
	}

	plt.Reset()
	plotLabels(res, os.Args[2])
	plt.Execute()
}

// combinedLabels maps every (forward, backward) label pair to a small
// dense index. Vertices with an unresolved side get index -1.
func combinedLabels(res *topology.Result) []int {
	idxs := map[[2]int32]int{}
	out := make([]int, res.Len())

	for i := range out {
		fwd, bwd := res.LabelsForward[i], res.LabelsBackward[i]
		if fwd == integrate.Unresolved || bwd == integrate.Unresolved {
			out[i] = -1
			continue
		}

		pair := [2]int32{fwd, bwd}
		idx, ok := idxs[pair]
		if !ok {
			idx = len(idxs)
			idxs[pair] = idx
		}
		out[i] = idx
	}

	return out
}

func plotLabels(res *topology.Result, fname string) {
	labels := combinedLabels(res)

	groups := map[int][]int{}
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}

	plt.Figure(plt.FigSize(8, 8))

	for label, idxs := range groups {
		xs := make([]float64, len(idxs))
		ys := make([]float64, len(idxs))
		for j, i := range idxs {
			xs[j] = float64(res.Vertices[2*i])
			ys[j] = float64(res.Vertices[2*i+1])
		}

		if label == -1 {
			plt.Plot(xs, ys, "ok")
		} else {
			plt.Plot(xs, ys, "o", plt.C(colors[label%len(colors)]))
		}
	}

	plt.Title(fmt.Sprintf(
		"Implicit topology: %d vertices, %d steps",
		res.Len(), res.State.StepsPerformed,
	))
	plt.XLabel(`$x$`, plt.FontSize(16))
	plt.YLabel(`$y$`, plt.FontSize(16))

	plt.SaveFig(fname)
}
