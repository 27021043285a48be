package io

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadVectorField(t *testing.T) {
	dir, err := ioutil.TempDir("", "gotopo_field_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	text := `# vx vy
1 0
1 0.5
0 -1
0 -0.5
`
	fname := writeTempFile(t, dir, "field.dat", text)

	f, err := ReadVectorField(fname, 2, 2, [4]float32{0, 0, 1, 1})
	assert.NoError(t, err)

	assert.Equal(t, 2, f.Nx)
	assert.Equal(t, 2, f.Ny)
	assert.Equal(t, []float32{1, 0, 1, 0.5, 0, -1, 0, -0.5}, f.Vectors)
}

func TestReadVectorFieldRejectsWrongRowCount(t *testing.T) {
	dir, err := ioutil.TempDir("", "gotopo_field_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	fname := writeTempFile(t, dir, "field.dat", "1 0\n0 1\n")
	_, err = ReadVectorField(fname, 2, 2, [4]float32{0, 0, 1, 1})
	assert.Error(t, err)
}

func TestReadStructures(t *testing.T) {
	dir, err := ioutil.TempDir("", "gotopo_structures_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	text := `# kind id x0 y0 x1 y1
0 4 0.5 0.5 0 0
1 7 0 0 1 0
0 2 0.25 0.75 0 0
`
	fname := writeTempFile(t, dir, "structures.dat", text)

	s, err := ReadStructures(fname)
	assert.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5, 0.25, 0.75}, s.Points)
	assert.Equal(t, []int32{4, 2}, s.PointIDs)
	assert.Equal(t, []float32{0, 0, 1, 0}, s.Lines)
	assert.Equal(t, []int32{7}, s.LineIDs)
}

func TestReadStructuresRejectsUnknownKind(t *testing.T) {
	dir, err := ioutil.TempDir("", "gotopo_structures_test")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	fname := writeTempFile(t, dir, "structures.dat", "2 1 0 0 0 0\n")
	_, err = ReadStructures(fname)
	assert.Error(t, err)
}
