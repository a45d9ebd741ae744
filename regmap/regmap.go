// Package regmap is the TM4C123GH6PM address map for the core peripherals
// driven by this module: the NVIC, the system handler registers of the System
// Control Block and the SysTick timer.
package regmap

// SysTick
const (
	SysTickCtrl    uintptr = 0xE000E010
	SysTickReload  uintptr = 0xE000E014
	SysTickCurrent uintptr = 0xE000E018

	SysTickCtrlEnable = 0
	SysTickCtrlIntEn  = 1
	SysTickCtrlClkSrc = 2
	SysTickCtrlCount  = 16

	// SysTickReloadMax is the largest value the 24-bit counter can reload.
	SysTickReloadMax = 0x00FFFFFF
)

// NVIC
const (
	NVICEn0  uintptr = 0xE000E100
	NVICDis0 uintptr = 0xE000E180
	NVICPri0 uintptr = 0xE000E400

	// NVICBanks is the number of 32-bit enable/disable banks.
	NVICBanks = 5

	// NVICPriRegs is the number of priority registers needed for IRQ 0..138.
	NVICPriRegs = 35

	// NVICPriFieldsPerReg priority fields share one register, one per byte lane.
	NVICPriFieldsPerReg = 4

	// NVICPriFieldShift is the offset of the implemented priority bits within a byte lane.
	NVICPriFieldShift = 5

	// PriorityBits is the number of implemented priority bits.
	PriorityBits = 3
)

// System Control Block
const (
	SysPri1    uintptr = 0xE000ED18
	SysPri2    uintptr = 0xE000ED1C
	SysPri3    uintptr = 0xE000ED20
	SysHndCtrl uintptr = 0xE000ED24

	SysHndCtrlMem   = 16
	SysHndCtrlBus   = 17
	SysHndCtrlUsage = 18

	// Bit positions of the priority fields in SYSPRI1..3.
	SysPri1MemShift     = 5
	SysPri1BusShift     = 13
	SysPri1UsageShift   = 21
	SysPri2SVCShift     = 29
	SysPri3DebugShift   = 5
	SysPri3PendSVShift  = 21
	SysPri3SysTickShift = 29
)

// SCSBase and SCSSize describe the System Control Space page that contains
// every register above.
const (
	SCSBase uintptr = 0xE000E000
	SCSSize         = 0x1000
)

// NVICEn returns the address of enable bank n.
func NVICEn(n int) uintptr {
	return NVICEn0 + uintptr(n)*4
}

// NVICDis returns the address of disable bank n.
func NVICDis(n int) uintptr {
	return NVICDis0 + uintptr(n)*4
}

// NVICPri returns the address of priority register n.
func NVICPri(n int) uintptr {
	return NVICPri0 + uintptr(n)*4
}
