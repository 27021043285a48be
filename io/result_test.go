package io

import (
	"bytes"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowvis/gotopo/integrate"
	"github.com/flowvis/gotopo/topology"
)

func testResult() *topology.Result {
	inf := float32(math.Inf(+1))
	return &topology.Result{
		Vertices: []float32{0, 0, 1, 0, 0, 1},
		Indices:  []int32{0, 1, 2},

		PositionsForward:  []float32{0.5, 0.5, 1.5, 0.5, 0.5, 1.5},
		PositionsBackward: []float32{-0.5, 0, 0.5, -0.5, -0.5, 0.5},

		LabelsForward:  []int32{2, 3, integrate.Unresolved},
		LabelsBackward: []int32{integrate.Unresolved, 3, 3},

		DistancesForward:  []float32{0.25, 0.5, inf},
		DistancesBackward: []float32{inf, 0.125, 0.0625},

		TerminationsForward: []integrate.Termination{
			integrate.NearStructure,
			integrate.ExitedDomain,
			integrate.Stagnated,
		},
		TerminationsBackward: []integrate.Termination{
			integrate.Stagnated,
			integrate.NearStructure,
			integrate.ExitedDomain,
		},

		Finished: true,
		State: topology.State{
			Method:            integrate.RK45,
			Timestep:          0.5,
			MaxError:          1e-4,
			FinalPositionOnly: true,
			StepsPerformed:    1250,
		},
	}
}

func TestResultRoundTrip(t *testing.T) {
	res := testResult()

	buf := &bytes.Buffer{}
	assert.NoError(t, WriteResult(res, buf))

	got, err := ReadResult(buf)
	assert.NoError(t, err)
	assert.Equal(t, res, got)

	assert.True(t, math.IsInf(float64(got.DistancesForward[2]), +1))
}

func TestReadResultRejectsBadMagic(t *testing.T) {
	res := testResult()
	buf := &bytes.Buffer{}
	assert.NoError(t, WriteResult(res, buf))

	raw := buf.Bytes()
	raw[0] ^= 0xff

	_, err := ReadResult(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestReadResultRejectsTruncatedBody(t *testing.T) {
	res := testResult()
	buf := &bytes.Buffer{}
	assert.NoError(t, WriteResult(res, buf))

	raw := buf.Bytes()
	_, err := ReadResult(bytes.NewReader(raw[:len(raw)-8]))
	assert.Error(t, err)
}

func TestSaveLoadResultFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "gotopo_result_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "result.topo")

	res := testResult()
	res.Finished = false

	assert.NoError(t, SaveResult(fname, res))
	got, loadErr := LoadResult(fname)
	assert.NoError(t, loadErr)
	assert.Equal(t, res, got)
}
