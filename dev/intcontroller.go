package dev

import (
	"sync"

	"github.com/jslick/matrixvm/arch/cpu/basiccpu"
	"github.com/jslick/matrixvm/machine"
)

// InterruptController connects device interrupts to the master CPU and owns
// the interrupt vector region in main memory. Each line i occupies 4 bytes
// at vector + 4*i holding the handler address; guest code installs handlers
// by writing to the vector.
//
// The controller additionally latches word-sized values on numbered pins,
// read by the guest with the read instruction and driven by devices such as
// the keyboard.
type InterruptController struct {
	mb     *machine.Motherboard
	vector int32

	mu   sync.RWMutex
	pins map[int]int32
}

var _ machine.InterruptController = (*InterruptController)(nil)

// NewInterruptController creates a new interrupt controller.
func NewInterruptController() *InterruptController {
	return &InterruptController{
		pins: make(map[int]int32),
	}
}

// Name returns the name of the device.
func (ic *InterruptController) Name() string {
	return "Basic interrupt controller"
}

// Init reserves the interrupt vector region.
func (ic *InterruptController) Init(mb *machine.Motherboard) error {
	ic.mb = mb

	vector, err := mb.ReserveDMA(ic, basiccpu.NumInterruptLines*4)
	if err != nil {
		return err
	}
	ic.vector = vector
	return nil
}

// VectorAddress returns the address in memory where the interrupt vector
// starts.
func (ic *InterruptController) VectorAddress() int32 {
	return ic.vector
}

// Pin returns the value latched on a CPU pin, or 0 for untouched pins.
func (ic *InterruptController) Pin(pin int) int32 {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.pins[pin]
}

// SetPin latches a value on a CPU pin.
func (ic *InterruptController) SetPin(pin int, word int32) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.pins[pin] = word
}

// Interrupt raises an interrupt line on the master CPU.
func (ic *InterruptController) Interrupt(line int) {
	if cpu := ic.mb.MasterCPU(); cpu != nil {
		cpu.Interrupt(line)
	}
}

// Write implements machine.Device; the controller has no ports.
func (ic *InterruptController) Write(int32, int) {}

// Stop implements machine.Device; the controller has no threads.
func (ic *InterruptController) Stop() {}
