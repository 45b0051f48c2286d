package dev

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jslick/matrixvm/log"
	"github.com/jslick/matrixvm/machine"
)

// Timer interrupt line and interval limits.
const (
	TimerIntLine = 0

	// MinTimerInterval is the shortest accepted tick interval in
	// microseconds.
	MinTimerInterval = 1000
	// MaxTimerInterval is the longest accepted tick interval in
	// microseconds.
	MaxTimerInterval = 1000000
	// DefaultTimerInterval is the tick interval after device init.
	DefaultTimerInterval = 999999

	// pausedPoll is how often a paused timer checks for a new interval.
	pausedPoll = 500 * time.Millisecond
)

// Timer raises the timer interrupt line at a guest-programmable interval.
// Writing a word to its port sets the interval in microseconds; zero pauses
// the timer.
type Timer struct {
	log *log.Logger
	mb  *machine.Motherboard

	interval atomic.Int32
	port     int

	quit     chan struct{}
	stopOnce sync.Once
}

var _ machine.Device = (*Timer)(nil)

// NewTimer creates a new timer device. A nil logger disables logging.
func NewTimer(logger *log.Logger) *Timer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Timer{
		log:  logger,
		quit: make(chan struct{}),
	}
}

// Name returns the name of the device.
func (t *Timer) Name() string {
	return "Timer"
}

// Init reserves the timer port and registers the tick thread.
func (t *Timer) Init(mb *machine.Motherboard) error {
	t.mb = mb
	t.interval.Store(DefaultTimerInterval)

	port, err := mb.RequestPort(t, 0)
	if err != nil {
		return err
	}
	t.port = port

	mb.RequestThread(t, t.run)
	return nil
}

// Port returns the port the timer is bound to.
func (t *Timer) Port() int {
	return t.port
}

// Write changes the timer interval.
func (t *Timer) Write(word int32, _ int) {
	t.log.Info("set timer interval", log.Int("microseconds", word))
	t.interval.Store(word)
}

// Stop requests the tick thread to exit.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.quit)
	})
}

// run generates interrupts every interval microseconds.
func (t *Timer) run(_ machine.Device, mb *machine.Motherboard) {
	ic := mb.InterruptController()
	if ic == nil {
		// pointless to loop if there's no interrupt controller
		return
	}

	for {
		interval := t.interval.Load()
		if interval == 0 {
			select {
			case <-t.quit:
				return
			case <-time.After(pausedPoll):
			}
			continue
		}

		if interval < MinTimerInterval {
			interval = MinTimerInterval
			t.interval.Store(interval)
		}
		if interval > MaxTimerInterval {
			interval = MaxTimerInterval
			t.interval.Store(interval)
		}

		select {
		case <-t.quit:
			return
		case <-time.After(time.Duration(interval) * time.Microsecond):
			if t.interval.Load() != 0 {
				ic.Interrupt(TimerIntLine)
			}
		}
	}
}
