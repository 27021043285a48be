package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/flowvis/gotopo/integrate"
	"github.com/flowvis/gotopo/topology"
)

var end = binary.LittleEndian

const (
	// ResultMagic marks a .topo result file.
	ResultMagic = int64(0x544f504f) // "TOPO"
	// ResultVersion is the current format version.
	ResultVersion = int64(1)
)

type ResultHeader struct {
	Type  TypeInfo
	State StateInfo
	Geom  GeomInfo
}

type TypeInfo struct {
	Magic      int64
	Version    int64
	Endianness int64
	HeaderSize int64
}

type StateInfo struct {
	Method            int64
	Timestep          float64
	MaxError          float64
	FinalPositionOnly int64
	StepsPerformed    int64
	Finished          int64
}

type GeomInfo struct {
	Vertices int64
	Indices  int64
}

func newResultHeader(res *topology.Result) ResultHeader {
	hd := ResultHeader{}

	var endFlag int64
	if end == binary.LittleEndian {
		endFlag = -1
	} else {
		endFlag = 0
	}
	hd.Type.Magic = ResultMagic
	hd.Type.Version = ResultVersion
	hd.Type.Endianness = endFlag
	hd.Type.HeaderSize = int64(unsafe.Sizeof(hd))

	hd.State.Method = int64(res.State.Method)
	hd.State.Timestep = float64(res.State.Timestep)
	hd.State.MaxError = float64(res.State.MaxError)
	if res.State.FinalPositionOnly {
		hd.State.FinalPositionOnly = 1
	}
	hd.State.StepsPerformed = int64(res.State.StepsPerformed)
	if res.Finished {
		hd.State.Finished = 1
	}

	hd.Geom.Vertices = int64(res.Len())
	hd.Geom.Indices = int64(len(res.Indices))

	return hd
}

// WriteResult writes a result snapshot to wr in the .topo binary format:
// a fixed-size header followed by the flat per-vertex slices.
func WriteResult(res *topology.Result, wr io.Writer) error {
	hd := newResultHeader(res)
	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}

	bufs := []interface{}{
		res.Vertices, res.Indices,
		res.PositionsForward, res.PositionsBackward,
		res.LabelsForward, res.LabelsBackward,
		res.DistancesForward, res.DistancesBackward,
		res.TerminationsForward, res.TerminationsBackward,
	}
	for _, buf := range bufs {
		if err := binary.Write(wr, end, buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadResult reads a snapshot written by WriteResult.
func ReadResult(rd io.Reader) (*topology.Result, error) {
	hd := ResultHeader{}
	if err := binary.Read(rd, end, &hd); err != nil {
		return nil, err
	}

	if hd.Type.Magic != ResultMagic {
		return nil, fmt.Errorf(
			"Result header magic is %x, but %x was expected.",
			hd.Type.Magic, ResultMagic,
		)
	}
	if hd.Type.Version != ResultVersion {
		return nil, fmt.Errorf(
			"Result file has format version %d, but only version %d "+
				"is supported.", hd.Type.Version, ResultVersion,
		)
	}
	if hd.Geom.Vertices < 0 || hd.Geom.Indices < 0 {
		return nil, fmt.Errorf(
			"Result header contains negative counts (%d vertices, "+
				"%d indices).", hd.Geom.Vertices, hd.Geom.Indices,
		)
	}

	n := int(hd.Geom.Vertices)
	res := &topology.Result{
		Vertices: make([]float32, 2*n),
		Indices:  make([]int32, hd.Geom.Indices),

		PositionsForward:  make([]float32, 2*n),
		PositionsBackward: make([]float32, 2*n),

		LabelsForward:  make([]int32, n),
		LabelsBackward: make([]int32, n),

		DistancesForward:  make([]float32, n),
		DistancesBackward: make([]float32, n),

		TerminationsForward:  make([]integrate.Termination, n),
		TerminationsBackward: make([]integrate.Termination, n),
	}

	bufs := []interface{}{
		res.Vertices, res.Indices,
		res.PositionsForward, res.PositionsBackward,
		res.LabelsForward, res.LabelsBackward,
		res.DistancesForward, res.DistancesBackward,
		res.TerminationsForward, res.TerminationsBackward,
	}
	for _, buf := range bufs {
		if err := binary.Read(rd, end, buf); err != nil {
			return nil, err
		}
	}

	res.Finished = hd.State.Finished != 0
	res.State = topology.State{
		Method:            integrate.Method(hd.State.Method),
		Timestep:          float32(hd.State.Timestep),
		MaxError:          float32(hd.State.MaxError),
		FinalPositionOnly: hd.State.FinalPositionOnly != 0,
		StepsPerformed:    int(hd.State.StepsPerformed),
	}

	return res, nil
}

// SaveResult writes res to the named file, creating or truncating it.
func SaveResult(fname string, res *topology.Result) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteResult(res, f)
}

// LoadResult reads a result from the named file.
func LoadResult(fname string) (*topology.Result, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadResult(f)
}
