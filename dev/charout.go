package dev

import (
	"io"
	"os"

	"github.com/jslick/matrixvm/log"
	"github.com/jslick/matrixvm/machine"
)

// CharOutputBufferSize is the size of the character output DMA region: one
// flag byte, 80 payload bytes, a NUL terminator slot and a guard byte that
// stays zero.
const CharOutputBufferSize = 83

// CharOutput lets the virtualized system write character data to the real
// operating system. Guest code places a NUL-terminated string into the
// device's DMA region (payload starts one byte after the region start) and
// writes to the device port to emit it.
type CharOutput struct {
	log *log.Logger
	mb  *machine.Motherboard
	w   io.Writer

	addr int32
	port int
}

var _ machine.Device = (*CharOutput)(nil)

// NewCharOutput creates a new character output device writing to w.
// A nil writer emits to the host's stdout; a nil logger disables logging.
func NewCharOutput(logger *log.Logger, w io.Writer) *CharOutput {
	if logger == nil {
		logger = log.NewNop()
	}
	if w == nil {
		w = os.Stdout
	}
	return &CharOutput{
		log: logger,
		w:   w,
	}
}

// Name returns the name of the device.
func (c *CharOutput) Name() string {
	return "RealStdout"
}

// Init reserves the DMA buffer and the output port.
func (c *CharOutput) Init(mb *machine.Motherboard) error {
	c.mb = mb

	addr, err := mb.ReserveDMA(c, CharOutputBufferSize)
	if err != nil {
		return err
	}
	c.addr = addr

	// the guard byte bounds the NUL scan even for a full payload
	mb.Memory()[addr+CharOutputBufferSize-1] = 0

	port, err := mb.RequestPort(c, 0)
	if err != nil {
		return err
	}
	c.port = port
	return nil
}

// Addr returns the start address of the device's DMA region. The payload
// starts one byte after it.
func (c *CharOutput) Addr() int32 {
	return c.addr
}

// Port returns the port the device is bound to.
func (c *CharOutput) Port() int {
	return c.port
}

// Write emits the NUL-terminated payload of the DMA region to the host
// writer.
func (c *CharOutput) Write(_ int32, _ int) {
	memory := c.mb.Memory()
	start := c.addr + 1
	end := start
	limit := c.addr + CharOutputBufferSize
	for end < limit && memory[end] != 0 {
		end++
	}

	if _, err := c.w.Write(memory[start:end]); err != nil {
		c.log.Warn("character output failed", log.Err(err))
	}
}

// Stop implements machine.Device; the device has no threads.
func (c *CharOutput) Stop() {}
