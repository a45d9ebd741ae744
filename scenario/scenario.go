// Package scenario runs scripted sequences of driver operations and reports
// the resulting register state.
//
//	target: tm4c123gh6pm
//	autoAdvance: 1000
//	steps:
//	  - {op: enable-irq, irq: 5}
//	  - {op: set-irq-priority, irq: 5, priority: 3}
//	  - {op: set-exception-priority, exception: SysTick, priority: 1}
//	  - {op: systick-init, ms: 1}
//	  - {op: advance, cycles: 32000}
package scenario

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/tm4c/config"
	"omibyte.io/tm4c/internal/debug"
	"omibyte.io/tm4c/mmio"
	"omibyte.io/tm4c/nvic"
	"omibyte.io/tm4c/regmap"
	"omibyte.io/tm4c/sim"
	"omibyte.io/tm4c/systick"
	"omibyte.io/tm4c/targets"
)

type Scenario struct {
	Target      string `yaml:"target"`
	ClockHz     uint32 `yaml:"clockHz"`
	Strict      bool   `yaml:"strict"`
	AutoAdvance uint32 `yaml:"autoAdvance"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	Op        string `yaml:"op"`
	IRQ       *int   `yaml:"irq"`
	Priority  *int   `yaml:"priority"`
	Exception string `yaml:"exception"`
	Ms        uint32 `yaml:"ms"`
	Cycles    uint64 `yaml:"cycles"`
}

func Parse(b []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Machine is what a scenario runs against. Sim is nil when Bus is a mapped
// register window; operations that drive the simulated clock are then refused.
type Machine struct {
	Bus mmio.Bus
	Sim *sim.System
}

// Simulated returns a Machine backed by a new simulator.
func Simulated(clockHz uint32, log *slog.Logger) Machine {
	s := sim.New(sim.Options{ClockHz: clockHz, Logger: log})
	return Machine{Bus: s, Sim: s}
}

type RegisterValue struct {
	Name  string
	Addr  uintptr
	Value uint32
}

type Report struct {
	Steps      int
	Registers  []RegisterValue
	Callbacks  uint64
	Spurious   uint64
	Dispatched map[int]int
}

// Format writes the report in the layout used by the golden files.
func (r *Report) Format(w io.Writer) error {
	for _, reg := range r.Registers {
		if _, err := fmt.Fprintf(w, "%-10s 0x%08x 0x%08x\n", reg.Name, reg.Addr, reg.Value); err != nil {
			return err
		}
	}
	irqs := make([]int, 0, len(r.Dispatched))
	for n := range r.Dispatched {
		irqs = append(irqs, n)
	}
	slices.Sort(irqs)
	for _, n := range irqs {
		if _, err := fmt.Fprintf(w, "irq %d dispatched %d\n", n, r.Dispatched[n]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "callbacks %d\nspurious %d\n", r.Callbacks, r.Spurious)
	return err
}

type runner struct {
	m     Machine
	ctl   *nvic.Controller
	timer *systick.Timer
	calls uint64
	disp  map[int]int
}

// Board resolves the scenario's target and clock.
func (sc *Scenario) Board() (*config.Board, error) {
	f := config.File{Target: sc.Target, SysTickClockHz: sc.ClockHz, Strict: sc.Strict}
	return f.Resolve(targets.All())
}

// Run executes every step against m and reports the final register state.
// A step the driver rejects in strict mode stops the run with ErrRejected.
func (sc *Scenario) Run(m Machine, log *slog.Logger) (*Report, error) {
	if log == nil {
		log = debug.Discard
	}
	board, err := sc.Board()
	if err != nil {
		return nil, err
	}

	r := &runner{m: m, disp: make(map[int]int)}
	r.ctl = nvic.New(m.Bus, board.NVICOptions(log))
	r.timer = systick.New(m.Bus, board.SysTickOptions(log, nil))
	r.timer.RegisterCallback(func() { r.calls++ })
	if m.Sim != nil {
		if sc.AutoAdvance > 0 {
			m.Sim.SetAutoAdvance(sc.AutoAdvance)
		}
		m.Sim.Handle(sim.VectorSysTick, r.timer.InterruptEntry)
		defer m.Sim.Handle(sim.VectorSysTick, nil)
	}

	for i, step := range sc.Steps {
		log.Debug("step", "n", i, "op", step.Op)
		if err := r.step(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	return &Report{
		Steps:      len(sc.Steps),
		Registers:  r.registers(),
		Callbacks:  r.calls,
		Spurious:   r.timer.Slot().Spurious(),
		Dispatched: r.disp,
	}, nil
}

func (r *runner) step(s Step) (err error) {
	defer func() {
		if v := recover(); v != nil {
			perr, ok := v.(error)
			if !ok {
				panic(v)
			}
			err = fmt.Errorf("%w: %w", ErrRejected, perr)
		}
	}()

	switch s.Op {
	case "enable-irq", "disable-irq", "set-irq-priority", "raise":
		if s.IRQ == nil {
			return fmt.Errorf("%w: irq", ErrMissingField)
		}
	case "enable-exception", "disable-exception", "set-exception-priority":
		if s.Exception == "" {
			return fmt.Errorf("%w: exception", ErrMissingField)
		}
	}

	switch s.Op {
	case "enable-irq":
		r.ctl.EnableInterrupt(s.irq())
	case "disable-irq":
		r.ctl.DisableInterrupt(s.irq())
	case "set-irq-priority":
		p, err := s.priority()
		if err != nil {
			return err
		}
		r.ctl.SetInterruptPriority(s.irq(), p)
	case "enable-exception", "disable-exception", "set-exception-priority":
		e, err := nvic.ParseException(s.Exception)
		if err != nil {
			return err
		}
		switch s.Op {
		case "enable-exception":
			r.ctl.EnableException(e)
		case "disable-exception":
			r.ctl.DisableException(e)
		default:
			p, err := s.priority()
			if err != nil {
				return err
			}
			r.ctl.SetExceptionPriority(e, p)
		}
	case "systick-init":
		r.timer.InitPeriodicInterrupt(s.Ms)
	case "busy-wait":
		if r.m.Sim == nil {
			return ErrNoSimulator
		}
		r.timer.StartBusyWait(s.Ms)
	case "stop":
		r.timer.Stop()
	case "start":
		r.timer.Start()
	case "deinit":
		r.timer.DeInit()
	case "advance":
		if r.m.Sim == nil {
			return ErrNoSimulator
		}
		r.m.Sim.Advance(s.Cycles)
	case "raise":
		if r.m.Sim == nil {
			return ErrNoSimulator
		}
		n := *s.IRQ
		if n < 0 || n >= regmap.NVICBanks*32 {
			return nil
		}
		r.m.Sim.Handle(sim.VectorIRQ(n), func() { r.disp[n]++ })
		r.m.Sim.Raise(n)
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, s.Op)
	}
	return nil
}

// irq converts the step interrupt number. Values an IRQ cannot hold are
// mapped to the largest IRQ instead of wrapping onto a real line.
func (s Step) irq() nvic.IRQ {
	n := *s.IRQ
	if n < 0 || n > math.MaxUint16 {
		n = math.MaxUint16
	}
	return nvic.IRQ(n)
}

// priority converts the step priority. Negative values cannot be expressed
// as a Priority and are mapped past the valid range so the driver rejects
// them.
func (s Step) priority() (nvic.Priority, error) {
	if s.Priority == nil {
		return 0, fmt.Errorf("%w: priority", ErrMissingField)
	}
	p := *s.Priority
	if p < 0 || p > 0xFF {
		p = 0xFF
	}
	return nvic.Priority(p), nil
}

// registers returns every non-zero register ordered by address.
func (r *runner) registers() []RegisterValue {
	var values map[uintptr]uint32
	if r.m.Sim != nil {
		values = r.m.Sim.Snapshot()
	} else {
		values = make(map[uintptr]uint32)
		for _, reg := range regmap.All() {
			if v := r.m.Bus.Load32(reg.Addr); v != 0 {
				values[reg.Addr] = v
			}
		}
	}

	addrs := make([]uintptr, 0, len(values))
	for addr := range values {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)

	out := make([]RegisterValue, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, RegisterValue{Name: regmap.Name(addr), Addr: addr, Value: values[addr]})
	}
	return out
}
