package nvic

import (
	"fmt"
	"strings"

	"omibyte.io/tm4c/regmap"
)

// Exception names a processor exception.
type Exception uint8

const (
	Reset Exception = iota
	NMI
	HardFault
	MemManage
	BusFault
	UsageFault
	SVCall
	DebugMonitor
	PendSV
	SysTick

	numExceptions
)

// exceptionInfo describes the software-visible controls of an exception. The
// zero value means "architecturally fixed": nothing to enable, no priority.
type exceptionInfo struct {
	name string

	// enable is the SYSHNDCTRL enable bit mask.
	enable uint32

	// sysPri is 1..3 for SYSPRI1..SYSPRI3.
	sysPri int
	shift  uint
}

var exceptions = [numExceptions]exceptionInfo{
	Reset:        {name: "Reset"},
	NMI:          {name: "NMI"},
	HardFault:    {name: "HardFault"},
	MemManage:    {name: "MemManage", enable: 1 << regmap.SysHndCtrlMem, sysPri: 1, shift: regmap.SysPri1MemShift},
	BusFault:     {name: "BusFault", enable: 1 << regmap.SysHndCtrlBus, sysPri: 1, shift: regmap.SysPri1BusShift},
	UsageFault:   {name: "UsageFault", enable: 1 << regmap.SysHndCtrlUsage, sysPri: 1, shift: regmap.SysPri1UsageShift},
	SVCall:       {name: "SVCall", sysPri: 2, shift: regmap.SysPri2SVCShift},
	DebugMonitor: {name: "DebugMonitor", sysPri: 3, shift: regmap.SysPri3DebugShift},
	PendSV:       {name: "PendSV", sysPri: 3, shift: regmap.SysPri3PendSVShift},
	SysTick:      {name: "SysTick", sysPri: 3, shift: regmap.SysPri3SysTickShift},
}

func (e Exception) info() exceptionInfo {
	if e >= numExceptions {
		return exceptionInfo{}
	}
	return exceptions[e]
}

func (e Exception) String() string {
	if n := e.info().name; n != "" {
		return n
	}
	return fmt.Sprintf("Exception(%d)", uint8(e))
}

// Switchable reports whether e has a software enable bit.
func (e Exception) Switchable() bool {
	return e.info().enable != 0
}

// Configurable reports whether e has a programmable priority.
func (e Exception) Configurable() bool {
	return e.info().sysPri != 0
}

// Exceptions returns every exception in vector order.
func Exceptions() []Exception {
	out := make([]Exception, numExceptions)
	for i := range out {
		out[i] = Exception(i)
	}
	return out
}

// ParseException accepts an exception name, case-insensitively.
func ParseException(s string) (Exception, error) {
	for i, info := range exceptions {
		if strings.EqualFold(info.name, s) {
			return Exception(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownException, s)
}

// EnableException sets the enable bit of a switchable fault. It does nothing
// for every other exception.
func (c *Controller) EnableException(e Exception) {
	if m := e.info().enable; m != 0 {
		c.shcsr.SetBits(m)
	}
}

// DisableException clears the enable bit of a switchable fault. It does
// nothing for every other exception.
func (c *Controller) DisableException(e Exception) {
	if m := e.info().enable; m != 0 {
		c.shcsr.ClearBits(m)
	}
}

// SetExceptionPriority installs p in the priority field of e, preserving the
// other fields of the same system priority register. Reset, NMI and HardFault
// have fixed priorities and are left alone.
func (c *Controller) SetExceptionPriority(e Exception, p Priority) {
	if !p.Valid() {
		c.reject("set exception priority", ErrInvalidPriority, e, p)
		return
	}
	info := e.info()
	if info.sysPri == 0 {
		return
	}
	c.sysPri[info.sysPri-1].ReplaceField(info.shift, regmap.PriorityBits, uint32(p))
}

// ExceptionEnabled reports whether a switchable fault is enabled. Exceptions
// without an enable bit are always active and report true.
func (c *Controller) ExceptionEnabled(e Exception) bool {
	m := e.info().enable
	if m == 0 {
		return e < numExceptions
	}
	return c.shcsr.HasBits(m)
}

// ExceptionPriority returns the programmed priority of a configurable
// exception.
func (c *Controller) ExceptionPriority(e Exception) (Priority, bool) {
	info := e.info()
	if info.sysPri == 0 {
		return 0, false
	}
	return Priority(c.sysPri[info.sysPri-1].Field(info.shift, regmap.PriorityBits)), true
}
