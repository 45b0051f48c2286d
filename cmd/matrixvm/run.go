package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
	"github.com/jslick/matrixvm/dev"
	"github.com/jslick/matrixvm/log"
	"github.com/jslick/matrixvm/machine"
)

type runFlags struct {
	memory   int
	entry    int
	cpus     int
	logLevel string

	timer   bool
	display bool
	width   int
	height  int
	scale   float64
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run bios_file",
		Short: "Boot the machine from a BIOS image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMachine(args[0], flags)
		},
	}

	cmd.Flags().IntVar(&flags.memory, "memory", 10*1024*1024, "main memory size in bytes")
	cmd.Flags().IntVar(&flags.entry, "entry", demoOffset, "address to load the BIOS image at (0 loads after the reserved region)")
	cmd.Flags().IntVar(&flags.cpus, "cpus", 1, "number of CPUs; the first one boots the machine")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.Flags().BoolVar(&flags.timer, "timer", true, "attach the timer device")
	cmd.Flags().BoolVar(&flags.display, "display", false, "attach the host display device")
	cmd.Flags().IntVar(&flags.width, "width", dev.DefaultDisplayWidth, "display width in pixels")
	cmd.Flags().IntVar(&flags.height, "height", dev.DefaultDisplayHeight, "display height in pixels")
	cmd.Flags().Float64Var(&flags.scale, "scale", 1, "display window scale factor")

	return cmd
}

func runMachine(biosPath string, flags runFlags) error {
	level, ok := log.ParseLevel(flags.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", flags.logLevel)
	}
	logger := log.NewWithConfig(log.Config{
		Level:  level,
		Output: os.Stderr,
	})

	bios, err := os.ReadFile(biosPath)
	if err != nil {
		return fmt.Errorf("reading BIOS image: %w", err)
	}

	mb := machine.New(logger)
	mb.SetMemorySize(int32(flags.memory))
	mb.SetBios(bios, int32(flags.entry))
	mb.SetInterruptController(dev.NewInterruptController())

	for i := 0; i < flags.cpus; i++ {
		mb.AddCPU(basiccpu.New(basiccpu.WithLogger(logger)), i == 0)
	}

	mb.AddDevice(dev.NewCharOutput(logger, os.Stdout))
	if flags.timer {
		mb.AddDevice(dev.NewTimer(logger))
	}
	if flags.display {
		mb.AddDevice(dev.NewDisplay(logger, flags.width, flags.height, flags.scale))
	}

	return mb.Start()
}
