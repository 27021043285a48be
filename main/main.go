package main

import (
	"flag"
	"fmt"
	stdio "io"
	"io/ioutil"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/flowvis/gotopo/advect"
	"github.com/flowvis/gotopo/io"
	"github.com/flowvis/gotopo/topology"
)

// FileGroup contains utility files for logging and performance output.
type FileGroup struct {
	log, perf *os.File
}

func (fg *FileGroup) Init(con *io.ComputeConfig) error {
	var err error
	if con.LogFile != "" {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			return err
		}
	}
	if con.PerformanceFile != "" {
		fg.perf, err = os.Create(con.PerformanceFile)
		if err != nil {
			return err
		}
	}
	return nil
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		if err := fg.log.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
	if fg.perf != nil {
		if err := fg.perf.Close(); err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		computeStr, resumeStr string
		exampleConfig         string
	)
	vars := map[string]*string{
		"Compute":       &computeStr,
		"Resume":        &resumeStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&advect.NumCores, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&computeStr, "Compute", "",
		"Configuration file for [Compute] mode.",
	)
	flag.StringVar(
		&resumeStr, "Resume", "",
		"Configuration file for resuming an earlier run. The computation "+
			"is restored from the config's OutputFile and continues "+
			"toward the config's TotalSteps.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. 'Compute' is the only accepted argument.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Compute":
		con, err := io.ReadComputeConfig(computeStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		computeMain(con, false)
	case "Resume":
		con, err := io.ReadComputeConfig(resumeStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		computeMain(con, true)
	case "ExampleConfig":
		switch exampleConfig {
		case "Compute":
			fmt.Println(io.ExampleComputeFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. 'Compute' is " +
					"the only recognized argument.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive
// error if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but gotopo only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// computeMain runs or resumes a computation described by con, streaming
// intermediate results to the log and writing the final result to the
// config's OutputFile.
func computeMain(con *io.ComputeConfig, resume bool) {
	fg := &FileGroup{}
	if err := fg.Init(con); err != nil {
		log.Fatal(err.Error())
	}
	defer fg.Close()

	logW, perfW := os.Stderr, (*os.File)(nil)
	if fg.log != nil {
		logW = fg.log
	}
	if fg.perf != nil {
		perfW = fg.perf
	}

	f, err := io.ReadVectorField(con.FieldFile, con.Nx, con.Ny, con.Bounds())
	if err != nil {
		log.Fatal(err.Error())
	}
	s, err := io.ReadStructures(con.StructuresFile)
	if err != nil {
		log.Fatal(err.Error())
	}

	var c *topology.Computation
	if resume {
		prev, err := io.LoadResult(con.OutputFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if prev.Finished {
			log.Printf(
				"Result in '%s' is already finished after %d steps.",
				con.OutputFile, prev.State.StepsPerformed,
			)
			return
		}
		c, err = topology.NewFromResult(logW, writerOrDiscard(perfW), f, s, prev)
		if err != nil {
			log.Fatal(err.Error())
		}
	} else {
		c, err = topology.New(
			logW, writerOrDiscard(perfW), f, f.Nodes(), s, con.Params(),
		)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if err := c.Start(con.StartOptions()); err != nil {
		log.Fatal(err.Error())
	}

	res := pollResults(c)

	if err := io.SaveResult(con.OutputFile, res); err != nil {
		log.Fatal(err.Error())
	}
	log.Printf(
		"Wrote %d vertices after %d steps to '%s'.",
		res.Len(), res.State.StepsPerformed, con.OutputFile,
	)
}

func writerOrDiscard(f *os.File) stdio.Writer {
	if f == nil {
		return ioutil.Discard
	}
	return f
}

// pollResults consumes intermediate futures until the final one resolves.
func pollResults(c *topology.Computation) *topology.Result {
	for {
		fut := c.Results()
		<-fut.Done()

		res, err := fut.Get()
		if err != nil {
			log.Fatal(err.Error())
		}
		if res.Finished {
			return res
		}

		log.Printf(
			"Intermediate result: %d vertices, %d steps.",
			res.Len(), res.State.StepsPerformed,
		)
	}
}
