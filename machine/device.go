package machine

// Device is the contract between the motherboard and a pluggable device.
//
// Init is called once during boot, in device insertion order. It is the
// place to reserve DMA memory and ports and to register background threads.
// An Init error causes the device to be skipped; boot continues.
type Device interface {
	// Name returns the name of the device.
	Name() string

	// Init prepares the device for operation on the given motherboard.
	Init(mb *Motherboard) error

	// Write handles a word written to one of the device's ports.
	Write(word int32, port int)

	// Stop requests background loops of the device to exit.
	Stop()
}

// ThreadFunc is the entry point of a background device thread. It runs on
// its own goroutine until the device's Stop is observed.
type ThreadFunc func(dev Device, mb *Motherboard)

// CPU is a processor that can be plugged into the motherboard.
type CPU interface {
	// Name returns the name of the CPU.
	Name() string

	// Start begins executing instructions at the given memory address and
	// returns when the CPU halts or faults.
	Start(mb *Motherboard, addr int32) error

	// Interrupt raises an interrupt line. Safe to call from any thread.
	Interrupt(line int)
}

// InterruptController connects devices to the master CPU's interrupt lines
// and owns the interrupt vector region in main memory.
type InterruptController interface {
	Device

	// VectorAddress returns the address in memory where the interrupt
	// vector starts.
	VectorAddress() int32

	// Pin returns the value latched on a CPU pin.
	Pin(pin int) int32

	// SetPin latches a value on a CPU pin. To simplify guest code, a pin is
	// word-sized.
	SetPin(pin int, word int32)

	// Interrupt raises an interrupt line on the master CPU.
	Interrupt(line int)
}
