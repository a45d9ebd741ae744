package regmap

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Register names a register of the map.
type Register struct {
	Name string
	Addr uintptr
}

var names map[uintptr]string

func init() {
	names = map[uintptr]string{
		SysTickCtrl:    "STCTRL",
		SysTickReload:  "STRELOAD",
		SysTickCurrent: "STCURRENT",
		SysPri1:        "SYSPRI1",
		SysPri2:        "SYSPRI2",
		SysPri3:        "SYSPRI3",
		SysHndCtrl:     "SYSHNDCTRL",
	}
	for i := 0; i < NVICBanks; i++ {
		names[NVICEn(i)] = fmt.Sprintf("EN%d", i)
		names[NVICDis(i)] = fmt.Sprintf("DIS%d", i)
	}
	for i := 0; i < NVICPriRegs; i++ {
		names[NVICPri(i)] = fmt.Sprintf("PRI%d", i)
	}
}

// Name returns the register name for addr, or its hexadecimal address when
// addr is not part of the map.
func Name(addr uintptr) string {
	if n, ok := names[addr]; ok {
		return n
	}
	return fmt.Sprintf("%#08x", addr)
}

// All returns every register of the map ordered by address.
func All() []Register {
	out := make([]Register, 0, len(names))
	for addr, name := range names {
		out = append(out, Register{Name: name, Addr: addr})
	}
	slices.SortFunc(out, func(a, b Register) bool { return a.Addr < b.Addr })
	return out
}
