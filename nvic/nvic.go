// Package nvic drives the TM4C123 nested vectored interrupt controller and the
// configurable system exceptions.
//
// Every operation either writes exactly the bits it names or, for invalid
// input, writes nothing at all. No error is returned to the caller; see
// Options for how rejected calls are reported.
package nvic

import (
	"fmt"
	"log/slog"

	"omibyte.io/tm4c/internal/debug"
	"omibyte.io/tm4c/mmio"
	"omibyte.io/tm4c/regmap"
)

// IRQ identifies a maskable interrupt line.
type IRQ uint16

// MaxIRQ is the highest interrupt number implemented by the device.
const MaxIRQ IRQ = 138

func (i IRQ) Valid() bool {
	return i <= MaxIRQ
}

func (i IRQ) bank() int {
	return int(i / 32)
}

func (i IRQ) mask() uint32 {
	return 1 << (i % 32)
}

// priField returns the priority register index and the bit offset of the
// priority field for this interrupt.
func (i IRQ) priField() (int, uint) {
	lane := uint(i % regmap.NVICPriFieldsPerReg)
	return int(i / regmap.NVICPriFieldsPerReg), lane*8 + regmap.NVICPriFieldShift
}

// Priority is an interrupt or exception priority; 0 is the most urgent.
type Priority uint8

// MaxPriority is the least urgent priority the 3 implemented bits can hold.
const MaxPriority Priority = 1<<regmap.PriorityBits - 1

func (p Priority) Valid() bool {
	return p <= MaxPriority
}

// Options configures how a Controller reports rejected input.
type Options struct {
	// Logger receives rejected calls at debug level.
	Logger *slog.Logger

	// Strict makes rejected calls panic with an error wrapping ErrInvalidIRQ
	// or ErrInvalidPriority.
	Strict bool
}

// Controller is the interrupt controller driver. It holds no state other than
// its register handles, so any number of Controllers on the same bus are
// interchangeable.
type Controller struct {
	en     [regmap.NVICBanks]mmio.Register32
	dis    [regmap.NVICBanks]mmio.Register32
	pri    [regmap.NVICPriRegs]mmio.Register32
	sysPri [3]mmio.Register32
	shcsr  mmio.Register32

	log    *slog.Logger
	strict bool
}

// New returns a Controller for the registers on bus.
func New(bus mmio.Bus, opts Options) *Controller {
	c := &Controller{
		sysPri: [3]mmio.Register32{
			mmio.Reg(bus, regmap.SysPri1),
			mmio.Reg(bus, regmap.SysPri2),
			mmio.Reg(bus, regmap.SysPri3),
		},
		shcsr:  mmio.Reg(bus, regmap.SysHndCtrl),
		log:    opts.Logger,
		strict: opts.Strict,
	}
	if c.log == nil {
		c.log = debug.Discard
	}
	for n := range c.en {
		c.en[n] = mmio.Reg(bus, regmap.NVICEn(n))
		c.dis[n] = mmio.Reg(bus, regmap.NVICDis(n))
	}
	for n := range c.pri {
		c.pri[n] = mmio.Reg(bus, regmap.NVICPri(n))
	}
	return c
}

func (c *Controller) reject(op string, err error, args ...any) {
	debug.Reject(c.log, c.strict, fmt.Errorf("nvic: %s %v: %w", op, args, err))
}

// EnableInterrupt enables interrupt id. The enable banks are write-one-to-set,
// so only the bit for id changes.
func (c *Controller) EnableInterrupt(id IRQ) {
	if !id.Valid() {
		c.reject("enable", ErrInvalidIRQ, id)
		return
	}
	c.en[id.bank()].Set(id.mask())
}

// DisableInterrupt disables interrupt id through the write-one-to-clear
// disable bank.
func (c *Controller) DisableInterrupt(id IRQ) {
	if !id.Valid() {
		c.reject("disable", ErrInvalidIRQ, id)
		return
	}
	c.dis[id.bank()].Set(id.mask())
}

// SetInterruptPriority installs p in the priority field of id. The three
// other fields sharing the register are preserved.
func (c *Controller) SetInterruptPriority(id IRQ, p Priority) {
	switch {
	case !id.Valid():
		c.reject("set priority", ErrInvalidIRQ, id, p)
		return
	case !p.Valid():
		c.reject("set priority", ErrInvalidPriority, id, p)
		return
	}
	n, shift := id.priField()
	c.pri[n].ReplaceField(shift, regmap.PriorityBits, uint32(p))
}

// InterruptEnabled reports whether id is enabled. Out of range lines are
// never enabled.
func (c *Controller) InterruptEnabled(id IRQ) bool {
	if !id.Valid() {
		return false
	}
	return c.en[id.bank()].HasBits(id.mask())
}

// InterruptPriority returns the priority programmed for id.
func (c *Controller) InterruptPriority(id IRQ) (Priority, bool) {
	if !id.Valid() {
		return 0, false
	}
	n, shift := id.priField()
	return Priority(c.pri[n].Field(shift, regmap.PriorityBits)), true
}
