package io

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/flowvis/gotopo/integrate"
	"github.com/flowvis/gotopo/topology"
)

const (
	ExampleComputeFile = `[Compute]

#######################
# Required Parameters #
#######################

# Text table containing the sampled vector field, one node per row with
# two columns (vx vy), in row-major node order (x fastest).
FieldFile = path/to/field.dat

# Grid resolution of the field file.
Nx = 64
Ny = 64

# Physical extent of the grid: [XMin, XMax] x [YMin, YMax].
XMin = 0
XMax = 1
YMin = 0
YMax = 1

# Text table containing the labeled convergence structures, one per row
# with six columns (kind id x0 y0 x1 y1). kind 0 is a point (x1, y1
# ignored), kind 1 is a line segment.
StructuresFile = path/to/structures.dat

# File the final result will be written to.
OutputFile = path/to/result.topo

# Total integration step budget for the run.
TotalSteps = 10000

#######################
# Optional Parameters #
#######################

# Integration scheme. One of [ rk4 | rk45 ].
# Method = rk45

# Fixed step scale for rk4, initial step scale for rk45.
# Timestep = 0.5

# Error tolerance for rk45 step control.
# MaxError = 0.0001

# Keep only the final particle position instead of updating labels and
# distances after every step. Faster, but the distance fields it gives
# you are coarser.
# FinalPositionOnly = false

# Edges at or below this length are never subdivided.
# RefinementThreshold = 0.001

# Subdivide edges whose endpoints disagree in their labels.
# RefineAtLabels = true

# Subdivide edges whose endpoint distances differ by more than this.
# DistanceDifferenceThreshold = 0.01

# Upper bound on the number of particles handed to the backend at once.
# ParticlesPerBatch = 10000

# Number of integration steps per round. An intermediate result is
# published after every round.
# StepsPerBatch = 100

# Output files which are useful for profiling and debugging. Generally,
# there isn't a reason to use these unless something goes wrong.
# PerformanceFile = perf.csv
# LogFile = log.out`
)

type ComputeConfig struct {
	// Required
	FieldFile      string
	Nx, Ny         int
	XMin, XMax     float64
	YMin, YMax     float64
	StructuresFile string
	OutputFile     string
	TotalSteps     int

	// Optional
	Method            string
	Timestep          float64
	MaxError          float64
	FinalPositionOnly bool

	RefinementThreshold         float64
	RefineAtLabels              bool
	DistanceDifferenceThreshold float64
	ParticlesPerBatch           int
	StepsPerBatch               int

	PerformanceFile string
	LogFile         string
}

type computeWrapper struct {
	Compute ComputeConfig
}

func defaultComputeConfig() ComputeConfig {
	return ComputeConfig{
		Method:                      "rk45",
		Timestep:                    0.5,
		MaxError:                    1e-4,
		RefinementThreshold:         1e-3,
		RefineAtLabels:              true,
		DistanceDifferenceThreshold: 1e-2,
		ParticlesPerBatch:           10000,
		StepsPerBatch:               100,
	}
}

func (con *ComputeConfig) checkInit() error {
	if con.FieldFile == "" {
		return fmt.Errorf("Need to specify a FieldFile in the Compute config.")
	} else if con.StructuresFile == "" {
		return fmt.Errorf(
			"Need to specify a StructuresFile in the Compute config.",
		)
	} else if con.OutputFile == "" {
		return fmt.Errorf(
			"Need to specify an OutputFile in the Compute config.",
		)
	}

	if con.Nx < 2 || con.Ny < 2 {
		return fmt.Errorf(
			"Compute config resolution is %dx%d, but needs to be at "+
				"least 2x2.", con.Nx, con.Ny,
		)
	}
	if con.XMax <= con.XMin || con.YMax <= con.YMin {
		return fmt.Errorf(
			"Compute config bounds [%g, %g] x [%g, %g] are empty.",
			con.XMin, con.XMax, con.YMin, con.YMax,
		)
	}
	if con.TotalSteps <= 0 {
		return fmt.Errorf(
			"Need to specify a positive TotalSteps in the Compute config.",
		)
	}

	tmp := con.Method
	con.Method = strings.Trim(strings.ToLower(con.Method), " ")
	if con.Method != "rk4" && con.Method != "rk45" {
		return fmt.Errorf(
			"Method of the Compute config must be one of [ rk4 | rk45 ]. "+
				"'%s' is not recognized.", tmp,
		)
	}

	if con.Timestep <= 0 {
		return fmt.Errorf(
			"Timestep of the Compute config must be positive, but is %g.",
			con.Timestep,
		)
	}

	return nil
}

// ReadComputeConfig reads and validates a gcfg-formatted compute config.
func ReadComputeConfig(fname string) (*ComputeConfig, error) {
	wrap := computeWrapper{defaultComputeConfig()}
	if err := gcfg.ReadFileInto(&wrap, fname); err != nil {
		return nil, err
	}
	con := wrap.Compute
	if err := con.checkInit(); err != nil {
		return nil, err
	}
	return &con, nil
}

// Params converts the config's integration settings.
func (con *ComputeConfig) Params() topology.Params {
	method := integrate.RK45
	if con.Method == "rk4" {
		method = integrate.RK4
	}
	return topology.Params{
		Method:            method,
		Timestep:          float32(con.Timestep),
		MaxError:          float32(con.MaxError),
		FinalPositionOnly: con.FinalPositionOnly,
	}
}

// StartOptions converts the config's run settings.
func (con *ComputeConfig) StartOptions() topology.StartOptions {
	return topology.StartOptions{
		TotalSteps:                  con.TotalSteps,
		RefinementThreshold:         float32(con.RefinementThreshold),
		RefineAtLabels:              con.RefineAtLabels,
		DistanceDifferenceThreshold: float32(con.DistanceDifferenceThreshold),
		ParticlesPerBatch:           con.ParticlesPerBatch,
		StepsPerBatch:               con.StepsPerBatch,
	}
}

// Bounds returns the config's grid extent as [xmin, ymin, xmax, ymax].
func (con *ComputeConfig) Bounds() [4]float32 {
	return [4]float32{
		float32(con.XMin), float32(con.YMin),
		float32(con.XMax), float32(con.YMax),
	}
}
