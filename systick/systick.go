// Package systick drives the Cortex-M SysTick timer, either as a periodic
// interrupt source that calls a registered callback or as a blocking delay.
//
// None of the operations lock. The control, reload and current registers are
// shared with anything else that touches SysTick, so the caller must not run
// two operations concurrently, and in particular must not call StartBusyWait
// from the callback.
//
// On target the exception vector calls InterruptEntry through an exported
// handler:
//
//	var tick = systick.New(mmio.Direct, systick.Options{})
//
//	//go:export SysTick_Handler
//	func sysTickHandler() { tick.InterruptEntry() }
package systick

import (
	"fmt"
	"log/slog"

	"omibyte.io/tm4c/bits"
	"omibyte.io/tm4c/internal/debug"
	"omibyte.io/tm4c/mmio"
	"omibyte.io/tm4c/regmap"
)

// DefaultClockHz is the precision internal oscillator the TM4C123 runs from
// out of reset.
const DefaultClockHz = 16_000_000

// State is the timer state as seen in the control register.
type State uint8

const (
	// Uninitialized: the control register is clear.
	Uninitialized State = iota
	// Armed: configured but not counting.
	Armed
	// Running: counting down.
	Running
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Armed:
		return "armed"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Reload returns the reload value for a period of ms milliseconds at clockHz.
// The counter period is reload+1 cycles, so the result is ms*clockHz/1000-1.
func Reload(ms, clockHz uint32) (uint32, error) {
	cycles := uint64(ms) * uint64(clockHz) / 1000
	if cycles < 2 || cycles-1 > regmap.SysTickReloadMax {
		return 0, fmt.Errorf("%w: %d ms at %d Hz", ErrReloadRange, ms, clockHz)
	}
	return uint32(cycles - 1), nil
}

// MaxDuration returns the longest period in milliseconds representable at
// clockHz.
func MaxDuration(clockHz uint32) uint32 {
	if clockHz == 0 {
		return 0
	}
	return uint32((uint64(regmap.SysTickReloadMax) + 1) * 1000 / uint64(clockHz))
}

type Options struct {
	// ClockHz is the SysTick clock. Zero means DefaultClockHz.
	ClockHz uint32

	// Slot receives the callback. Zero means a slot private to the Timer.
	Slot *Slot

	Logger *slog.Logger

	// Strict makes rejected durations panic with ErrReloadRange and an
	// interrupt with no callback panic with ErrNoCallback.
	Strict bool
}

// Timer is the SysTick driver.
type Timer struct {
	ctrl    mmio.Register32
	reload  mmio.Register32
	current mmio.Register32

	clockHz uint32
	slot    *Slot
	log     *slog.Logger
	strict  bool
}

// New returns a Timer for the SysTick registers on bus.
func New(bus mmio.Bus, opts Options) *Timer {
	t := &Timer{
		ctrl:    mmio.Reg(bus, regmap.SysTickCtrl),
		reload:  mmio.Reg(bus, regmap.SysTickReload),
		current: mmio.Reg(bus, regmap.SysTickCurrent),
		clockHz: opts.ClockHz,
		slot:    opts.Slot,
		log:     opts.Logger,
		strict:  opts.Strict,
	}
	if t.clockHz == 0 {
		t.clockHz = DefaultClockHz
	}
	if t.slot == nil {
		t.slot = new(Slot)
	}
	if t.log == nil {
		t.log = debug.Discard
	}
	return t
}

func (t *Timer) ClockHz() uint32 {
	return t.clockHz
}

func (t *Timer) Slot() *Slot {
	return t.slot
}

// arm loads the reload value and starts counting. The interrupt enable,
// clock source and enable bits are set by three separate writes in that order.
func (t *Timer) arm(ms uint32, interrupt bool) bool {
	reload, err := Reload(ms, t.clockHz)
	if err != nil {
		debug.Reject(t.log, t.strict, fmt.Errorf("systick: %w", err))
		return false
	}

	t.ctrl.Clear()
	t.reload.Set(reload)
	t.current.Clear()

	if interrupt {
		t.ctrl.SetBit(regmap.SysTickCtrlIntEn)
	}
	t.ctrl.SetBit(regmap.SysTickCtrlClkSrc)
	t.ctrl.SetBit(regmap.SysTickCtrlEnable)

	t.log.Debug("systick armed", "ms", ms, "reload", reload, "interrupt", interrupt)
	return true
}

// InitPeriodicInterrupt makes SysTick raise its exception every ms
// milliseconds. The exception must be routed to InterruptEntry. A duration
// the counter cannot represent leaves the timer untouched.
func (t *Timer) InitPeriodicInterrupt(ms uint32) {
	t.arm(ms, true)
}

// StartBusyWait blocks for ms milliseconds by polling COUNTFLAG, then stops
// the timer. It cannot be cancelled. A duration the counter cannot represent
// returns immediately without touching the timer.
func (t *Timer) StartBusyWait(ms uint32) {
	if !t.arm(ms, false) {
		return
	}
	for !t.ctrl.BitIsSet(regmap.SysTickCtrlCount) {
	}
	t.ctrl.ClearBit(regmap.SysTickCtrlEnable)
}

// RegisterCallback replaces the callback run by InterruptEntry.
func (t *Timer) RegisterCallback(fn func()) {
	t.slot.Register(fn)
}

// InterruptEntry is the SysTick exception handler. It runs the registered
// callback once. With no callback registered it does nothing except count
// the interrupt as spurious.
func (t *Timer) InterruptEntry() {
	if !t.slot.Fire() {
		debug.Reject(t.log, t.strict, ErrNoCallback)
	}
}

// Stop clears the enable bit only; reload, current value and interrupt
// enable are kept so Start resumes where the counter stopped.
func (t *Timer) Stop() {
	t.ctrl.ClearBit(regmap.SysTickCtrlEnable)
}

// Start sets the enable bit only. The reload value must already be loaded.
func (t *Timer) Start() {
	t.ctrl.SetBit(regmap.SysTickCtrlEnable)
}

// DeInit clears the whole control register.
func (t *Timer) DeInit() {
	t.ctrl.Clear()
}

// State reads the control register. On hardware the read also clears
// COUNTFLAG, so do not call it while StartBusyWait is polling.
func (t *Timer) State() State {
	v := bits.Clear(t.ctrl.Get(), regmap.SysTickCtrlCount)
	switch {
	case v == 0:
		return Uninitialized
	case bits.IsSet(v, regmap.SysTickCtrlEnable):
		return Running
	default:
		return Armed
	}
}
