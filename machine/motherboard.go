package machine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/jslick/matrixvm/log"
)

const (
	// MinMemory is the minimum amount of main memory (in bytes) required to
	// boot the machine.
	MinMemory = 1024

	// MinAvailMemory is the minimum amount of memory (in bytes) that must
	// remain available after the reserved DMA region.
	MinAvailMemory = 512

	// MaxPort is the highest addressable device port. Port 0 is reserved.
	MaxPort = 0xFFFF

	// initialReserved keeps address 0 and the rest of the first word out of
	// the reservable DMA space.
	initialReserved = 4
)

// Motherboard is the central piece of the virtual machine.
//
// Devices and CPUs are loaded into an instance of this class, memory
// characteristics are initialized here, and Start boots the machine.
// All setters must be called before Start; the device registry and port map
// are read-only once the machine runs.
type Motherboard struct {
	log *log.Logger

	memorySize int32
	memory     Memory
	reserved   int32 // end of the reserved DMA region

	cpus    []CPU
	master  int // index of the CPU to boot from
	devices []Device
	ic      InterruptController
	ports   map[int]Device
	threads []*deviceThread

	bios  []byte
	entry int32

	reportFn func(error)
	aborted  atomic.Bool
	wg       sync.WaitGroup
}

type deviceThread struct {
	dev Device
	fn  ThreadFunc
}

// New creates an unbootable Motherboard. Use the setters to make it
// bootable. A nil logger disables logging.
func New(logger *log.Logger) *Motherboard {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Motherboard{
		log:      logger,
		reserved: initialReserved,
		ports:    make(map[int]Device),
	}
}

// SetExceptionReport sets a callback invoked for every recovered device or
// CPU exception.
func (m *Motherboard) SetExceptionReport(fn func(error)) {
	m.reportFn = fn
}

// MemorySize returns the size of main memory in bytes.
func (m *Motherboard) MemorySize() int32 {
	return m.memorySize
}

// SetMemorySize sets the size of main memory in bytes.
func (m *Motherboard) SetMemorySize(size int32) {
	m.memorySize = size
}

// SetBios sets the BIOS image to load at boot and the address to load it
// at. An entry of 0 loads the image directly after the reserved DMA region.
func (m *Motherboard) SetBios(bios []byte, entry int32) {
	m.bios = bios
	m.entry = entry
}

// AddCPU adds a CPU to the motherboard. The last CPU added with master set
// becomes the CPU the machine boots from.
func (m *Motherboard) AddCPU(cpu CPU, master bool) {
	m.cpus = append(m.cpus, cpu)
	if master {
		m.master = len(m.cpus) - 1
	}
}

// MasterCPU returns the CPU the machine boots from, or nil if no CPU has
// been added.
func (m *Motherboard) MasterCPU() CPU {
	if len(m.cpus) == 0 {
		return nil
	}
	return m.cpus[m.master]
}

// AddDevice adds a device to the motherboard.
func (m *Motherboard) AddDevice(dev Device) {
	m.devices = append(m.devices, dev)
}

// SetInterruptController attaches the interrupt controller. It is
// initialized before all other devices.
func (m *Motherboard) SetInterruptController(ic InterruptController) {
	m.ic = ic
}

// InterruptController returns the attached interrupt controller, or nil.
func (m *Motherboard) InterruptController() InterruptController {
	return m.ic
}

// Memory returns main memory. It is only valid after Start allocated it.
func (m *Motherboard) Memory() Memory {
	return m.memory
}

// ReserveDMA grants the device the next size bytes of the reserved region
// for memory-mapped I/O and returns its start address. A region is never
// relocated or released while the machine runs.
//
// The reservation fails with ErrOutOfMemory if less than MinAvailMemory
// bytes of memory would remain available after it.
func (m *Motherboard) ReserveDMA(dev Device, size int32) (int32, error) {
	if size <= 0 {
		return 0, fmt.Errorf("cannot reserve non-positive size %d", size)
	}
	if m.memorySize-(m.reserved+size) < MinAvailMemory {
		return 0, fmt.Errorf("reserving %d bytes for %s: %w", size, dev.Name(), ErrOutOfMemory)
	}

	addr := m.reserved
	m.reserved += size
	m.log.Debug("reserved dma region",
		log.String("device", dev.Name()), log.Int("address", addr), log.Int("size", size))
	return addr, nil
}

// RequestPort binds a device port. A preferred port of 0 assigns the lowest
// free port; otherwise the exact port is bound if still free.
func (m *Motherboard) RequestPort(dev Device, preferred int) (int, error) {
	if preferred < 0 || preferred > MaxPort {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, preferred)
	}

	port := preferred
	if port == 0 {
		for port = 1; port <= MaxPort; port++ {
			if _, taken := m.ports[port]; !taken {
				break
			}
		}
		if port > MaxPort {
			return 0, fmt.Errorf("%w: no free port left", ErrInvalidPort)
		}
	} else if _, taken := m.ports[port]; taken {
		return 0, fmt.Errorf("%w: %d", ErrPortTaken, port)
	}

	m.ports[port] = dev
	m.log.Debug("bound port", log.String("device", dev.Name()), log.Int("port", port))
	return port, nil
}

// WritePort routes a word to the device bound to the given port. The write
// is synchronous with respect to the device.
func (m *Motherboard) WritePort(port int, word int32) error {
	dev, ok := m.ports[port]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchPort, port)
	}
	dev.Write(word, port)
	return nil
}

// Ports returns all bound ports in ascending order.
func (m *Motherboard) Ports() []int {
	ports := maps.Keys(m.ports)
	slices.Sort(ports)
	return ports
}

// RequestThread registers a background worker for the device. The worker is
// started at boot and runs until the device's Stop is observed.
func (m *Motherboard) RequestThread(dev Device, fn ThreadFunc) {
	m.threads = append(m.threads, &deviceThread{dev: dev, fn: fn})
}

// Abort requests shutdown before or during boot.
func (m *Motherboard) Abort() {
	m.aborted.Store(true)
}

// Start boots the virtual machine and returns when the master CPU halts.
//
// Boot order: validate, allocate memory, initialize the interrupt
// controller and then each device in insertion order, start the background
// device threads, load the BIOS image and start the master CPU. A device
// whose Init fails is skipped and its error reported. After the CPU
// returns, all device threads are stopped and joined.
func (m *Motherboard) Start() error {
	if m.aborted.Load() {
		return ErrAborted
	}
	if len(m.cpus) == 0 {
		return ErrNoCPUs
	}
	if m.memorySize < MinMemory {
		return fmt.Errorf("%w: %d bytes", ErrInsufficientMemory, m.memorySize)
	}

	m.memory = make(Memory, m.memorySize)

	if m.ic != nil {
		if err := m.ic.Init(m); err != nil {
			m.reportException(fmt.Errorf("initializing %s: %w", m.ic.Name(), err))
			m.ic = nil
		}
	}
	for _, dev := range m.devices {
		if err := dev.Init(m); err != nil {
			// don't crash the machine; just skip the device
			m.reportException(fmt.Errorf("initializing %s: %w", dev.Name(), err))
		}
	}

	if m.aborted.Load() {
		return ErrAborted
	}

	for _, t := range m.threads {
		m.startThread(t)
	}

	entry, err := m.loadBios()
	if err != nil {
		m.stopThreads()
		return err
	}

	cpu := m.cpus[m.master]
	m.log.Info("starting cpu",
		log.String("cpu", cpu.Name()), log.Int("entry", entry))
	err = cpu.Start(m, entry)
	if err != nil {
		// don't crash while device threads can be running
		m.reportException(err)
	}

	m.stopThreads()
	return err
}

// loadBios copies the BIOS image into memory and returns the entry address.
func (m *Motherboard) loadBios() (int32, error) {
	entry := m.entry
	if entry == 0 {
		entry = m.reserved
	}
	if rest := entry % 4; rest != 0 {
		entry += 4 - rest
	}
	if entry+int32(len(m.bios)) > m.memorySize {
		return 0, fmt.Errorf("%w: BIOS of %d bytes does not fit at %d",
			ErrInsufficientMemory, len(m.bios), entry)
	}
	copy(m.memory[entry:], m.bios)
	return entry, nil
}

func (m *Motherboard) startThread(t *deviceThread) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.reportException(fmt.Errorf("device thread %s: %v", t.dev.Name(), r))
			}
		}()
		t.fn(t.dev, m)
	}()
}

func (m *Motherboard) stopThreads() {
	for _, t := range m.threads {
		t.dev.Stop()
	}
	m.wg.Wait()
}

func (m *Motherboard) reportException(err error) {
	m.log.Error("machine exception", log.Err(err))
	if m.reportFn != nil {
		m.reportFn(err)
	}
}
