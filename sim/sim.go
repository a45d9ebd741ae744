// Package sim simulates the System Control Space of a Cortex-M4: the NVIC
// enable, disable and priority registers, the system handler registers and the
// SysTick timer.
//
// A System is an mmio.Bus. Register side effects follow the architecture:
// enable and disable banks are write-one-to-set and write-one-to-clear views
// of the same state, unimplemented priority bits read as zero, any write to the
// SysTick current value clears it, and reading the SysTick control register
// clears COUNTFLAG. Addresses that are not modelled behave as plain memory.
package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"omibyte.io/tm4c/regmap"
)

// Vector is an exception number as it appears in the vector table.
type Vector int

const (
	VectorNMI          Vector = 2
	VectorHardFault    Vector = 3
	VectorMemManage    Vector = 4
	VectorBusFault     Vector = 5
	VectorUsageFault   Vector = 6
	VectorSVCall       Vector = 11
	VectorDebugMonitor Vector = 12
	VectorPendSV       Vector = 14
	VectorSysTick      Vector = 15
)

// VectorIRQ returns the vector of external interrupt n.
func VectorIRQ(n int) Vector {
	return Vector(16 + n)
}

const (
	// Implemented bits of the priority registers; the rest read as zero.
	nvicPriImplemented = 0xE0E0E0E0
	sysPri1Implemented = 0x00E0E0E0
	sysPri2Implemented = 0xE0000000
	sysPri3Implemented = 0xE0E000E0

	sysTickCtrlWritable = 1<<regmap.SysTickCtrlEnable | 1<<regmap.SysTickCtrlIntEn | 1<<regmap.SysTickCtrlClkSrc
)

// Options configures a System.
type Options struct {
	// ClockHz is the SysTick input clock, used by Run to convert wall time to
	// cycles.
	ClockHz uint32

	// AutoAdvance is the number of cycles the SysTick counter moves forward
	// every time its control register is read, so code polling COUNTFLAG makes
	// progress without a Run loop.
	AutoAdvance uint32

	Logger *slog.Logger
}

// System is a simulated System Control Space.
type System struct {
	mu sync.Mutex

	enabled [regmap.NVICBanks]uint32
	pri     [regmap.NVICPriRegs]uint32
	sysPri  [3]uint32
	shcsr   uint32
	tick    sysTick
	mem     map[uintptr]uint32

	handlers map[Vector]func()

	clockHz     uint32
	autoAdvance uint32
	log         *slog.Logger
}

type sysTick struct {
	ctrl      uint32
	reload    uint32
	current   uint32
	countFlag bool
	wraps     uint64
}

// New returns a System in its reset state.
func New(opts Options) *System {
	s := &System{
		mem:         make(map[uintptr]uint32),
		handlers:    make(map[Vector]func()),
		clockHz:     opts.ClockHz,
		autoAdvance: opts.AutoAdvance,
		log:         opts.Logger,
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handle installs fn as the handler of vector v. A nil fn removes it.
func (s *System) Handle(v Vector, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.handlers, v)
		return
	}
	s.handlers[v] = fn
}

// SetAutoAdvance changes the number of cycles applied per control register
// read.
func (s *System) SetAutoAdvance(cycles uint32) {
	s.mu.Lock()
	s.autoAdvance = cycles
	s.mu.Unlock()
}

func (s *System) Load32(addr uintptr) uint32 {
	s.mu.Lock()
	var fires int
	if addr == regmap.SysTickCtrl && s.autoAdvance > 0 {
		fires = s.advanceLocked(uint64(s.autoAdvance))
	}
	v := s.readLocked(addr, true)
	s.mu.Unlock()

	s.dispatch(VectorSysTick, fires)
	return v
}

func (s *System) Store32(addr uintptr, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case addr >= regmap.NVICEn0 && addr < regmap.NVICEn(regmap.NVICBanks):
		s.enabled[(addr-regmap.NVICEn0)/4] |= value
	case addr >= regmap.NVICDis0 && addr < regmap.NVICDis(regmap.NVICBanks):
		s.enabled[(addr-regmap.NVICDis0)/4] &^= value
	case addr >= regmap.NVICPri0 && addr < regmap.NVICPri(regmap.NVICPriRegs):
		s.pri[(addr-regmap.NVICPri0)/4] = value & nvicPriImplemented
	case addr == regmap.SysPri1:
		s.sysPri[0] = value & sysPri1Implemented
	case addr == regmap.SysPri2:
		s.sysPri[1] = value & sysPri2Implemented
	case addr == regmap.SysPri3:
		s.sysPri[2] = value & sysPri3Implemented
	case addr == regmap.SysHndCtrl:
		s.shcsr = value
	case addr == regmap.SysTickCtrl:
		s.tick.ctrl = value & sysTickCtrlWritable
	case addr == regmap.SysTickReload:
		s.tick.reload = value & regmap.SysTickReloadMax
	case addr == regmap.SysTickCurrent:
		s.tick.current = 0
		s.tick.countFlag = false
	default:
		if value == 0 {
			delete(s.mem, addr)
		} else {
			s.mem[addr] = value
		}
	}
}

// readLocked returns the register value. Read side effects only apply when
// live is set.
func (s *System) readLocked(addr uintptr, live bool) uint32 {
	switch {
	case addr >= regmap.NVICEn0 && addr < regmap.NVICEn(regmap.NVICBanks):
		return s.enabled[(addr-regmap.NVICEn0)/4]
	case addr >= regmap.NVICDis0 && addr < regmap.NVICDis(regmap.NVICBanks):
		return s.enabled[(addr-regmap.NVICDis0)/4]
	case addr >= regmap.NVICPri0 && addr < regmap.NVICPri(regmap.NVICPriRegs):
		return s.pri[(addr-regmap.NVICPri0)/4]
	case addr == regmap.SysPri1:
		return s.sysPri[0]
	case addr == regmap.SysPri2:
		return s.sysPri[1]
	case addr == regmap.SysPri3:
		return s.sysPri[2]
	case addr == regmap.SysHndCtrl:
		return s.shcsr
	case addr == regmap.SysTickCtrl:
		v := s.tick.ctrl
		if s.tick.countFlag {
			v |= 1 << regmap.SysTickCtrlCount
			if live {
				s.tick.countFlag = false
			}
		}
		return v
	case addr == regmap.SysTickReload:
		return s.tick.reload
	case addr == regmap.SysTickCurrent:
		return s.tick.current
	default:
		return s.mem[addr]
	}
}

// Peek reads a register without side effects.
func (s *System) Peek(addr uintptr) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(addr, false)
}

// Snapshot returns every register of the address map, plus any other word
// written, that currently reads as non-zero. Disable banks are omitted since
// they mirror the enable banks.
func (s *System) Snapshot() map[uintptr]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uintptr]uint32)
	for _, r := range regmap.All() {
		if r.Addr >= regmap.NVICDis0 && r.Addr < regmap.NVICDis(regmap.NVICBanks) {
			continue
		}
		if v := s.readLocked(r.Addr, false); v != 0 {
			out[r.Addr] = v
		}
	}
	for addr, v := range s.mem {
		out[addr] = v
	}
	return out
}

// Wraps returns how many times the SysTick counter has reached zero.
func (s *System) Wraps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick.wraps
}

// Advance runs the SysTick counter for the given number of clock cycles and
// dispatches one SysTick exception per wrap when TICKINT is set.
func (s *System) Advance(cycles uint64) {
	s.mu.Lock()
	fires := s.advanceLocked(cycles)
	s.mu.Unlock()

	s.dispatch(VectorSysTick, fires)
}

// advanceLocked returns the number of SysTick exceptions to deliver.
func (s *System) advanceLocked(cycles uint64) int {
	t := &s.tick
	if t.ctrl&(1<<regmap.SysTickCtrlEnable) == 0 {
		return 0
	}

	var wraps int
	for cycles > 0 {
		if t.current == 0 {
			// A zero reload value stops the counter at zero.
			if t.reload == 0 {
				break
			}
			t.current = t.reload
			cycles--
			continue
		}
		step := uint64(t.current)
		if cycles < step {
			step = cycles
		}
		t.current -= uint32(step)
		cycles -= step
		if t.current == 0 {
			wraps++
		}
	}

	if wraps == 0 {
		return 0
	}
	t.countFlag = true
	t.wraps += uint64(wraps)
	if t.ctrl&(1<<regmap.SysTickCtrlIntEn) == 0 {
		return 0
	}
	return wraps
}

// Raise signals external interrupt n. Its handler runs only if the line is
// enabled in the NVIC. Raise reports whether the handler was dispatched.
func (s *System) Raise(n int) bool {
	if n < 0 || n >= regmap.NVICBanks*32 {
		return false
	}
	s.mu.Lock()
	enabled := s.enabled[n/32]&(1<<(n%32)) != 0
	s.mu.Unlock()

	if !enabled {
		s.log.Debug("interrupt masked", "irq", n)
		return false
	}
	return s.dispatch(VectorIRQ(n), 1)
}

// Fault signals a configurable fault. Faults whose SYSHNDCTRL enable bit is
// clear escalate to HardFault, as on hardware.
func (s *System) Fault(v Vector) bool {
	var bit uint
	switch v {
	case VectorMemManage:
		bit = regmap.SysHndCtrlMem
	case VectorBusFault:
		bit = regmap.SysHndCtrlBus
	case VectorUsageFault:
		bit = regmap.SysHndCtrlUsage
	default:
		return s.dispatch(v, 1)
	}

	s.mu.Lock()
	enabled := s.shcsr&(1<<bit) != 0
	s.mu.Unlock()

	if !enabled {
		s.log.Debug("fault escalated", "vector", int(v))
		v = VectorHardFault
	}
	return s.dispatch(v, 1)
}

// dispatch invokes the handler of v n times, outside the lock so handlers can
// access registers.
func (s *System) dispatch(v Vector, n int) bool {
	if n == 0 {
		return false
	}
	s.mu.Lock()
	fn := s.handlers[v]
	s.mu.Unlock()

	if fn == nil {
		s.log.Debug("no handler", "vector", int(v))
		return false
	}
	for i := 0; i < n; i++ {
		fn()
	}
	return true
}

// Run advances SysTick in real time, at ClockHz cycles per second, until ctx
// is done. Exceptions are dispatched from the calling goroutine.
func (s *System) Run(ctx context.Context, interval time.Duration) error {
	if s.clockHz == 0 {
		return ErrNoClock
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	var carry uint64 // nanoseconds*clockHz not yet converted to a full cycle
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := uint64(now.Sub(last).Nanoseconds())
			last = now
			carry += elapsed * uint64(s.clockHz)
			cycles := carry / uint64(time.Second)
			carry %= uint64(time.Second)
			s.Advance(cycles)
		}
	}
}
