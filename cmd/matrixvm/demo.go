package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
	"github.com/jslick/matrixvm/asm"
)

// demoOffset is the base address the demo program is assembled for and the
// default entry address of the run command.
const demoOffset = 7000000

// Device layout of the default machine built by the run command: the
// interrupt vector sits at the start of the reserved region, followed by
// the character output buffer whose payload starts one byte in. The
// character output device takes the first free port.
const (
	demoOutputBuffer = 4 + basiccpu.NumInterruptLines*4 + 1
	demoOutputPort   = 1
)

func newDemoCommand() *cobra.Command {
	var output string
	var offset int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Assemble the built-in demo program",
		Long: "Assemble the built-in \"Hello World!\" program into a BIOS image.\n" +
			"The image must be loaded at the offset it was assembled for,\n" +
			"e.g. matrixvm run --entry 7000000 bios.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeDemo(output, int32(offset))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&offset, "offset", demoOffset, "base address to assemble for")

	return cmd
}

func writeDemo(output string, offset int32) error {
	image, err := demoProgram(offset).Bytes()
	if err != nil {
		return fmt.Errorf("assembling demo program: %w", err)
	}

	if output == "" {
		_, err = os.Stdout.Write(image)
		return err
	}
	return os.WriteFile(output, image, 0o644)
}

// demoProgram builds the canonical hello world program: copy a greeting
// into the character output buffer and flush it through the output port.
func demoProgram(offset int32) *asm.Program {
	p := asm.New(offset)
	_ = p.Equate("OUTPORT", demoOutputPort)
	_ = p.Equate("OUTBUF", demoOutputBuffer)

	p.Op("jmp", asm.Symbol("main"))

	_ = p.Label("S1")
	p.Op("db", asm.StringData("Hello World!\n", true))

	_ = p.Label("S1_LENGTH")
	_ = p.Label("main")
	p.Op("mov", asm.Register("r1"), asm.Symbol("OUTBUF"))
	p.Op("mov", asm.Register("r2"), asm.Symbol("S1"))
	p.Op("mov", asm.Register("r3"), asm.Sub("S1_LENGTH", "S1"))
	p.Op("memcpy", asm.Register("r1"), asm.Register("r2"), asm.Register("r3"))
	p.Op("write", asm.Symbol("OUTPORT"), asm.Integer(1))
	p.Op("halt")

	return p
}
