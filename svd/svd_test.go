package svd

import (
	"errors"
	"strings"
	"testing"

	"omibyte.io/tm4c/targets"
)

const nvicRegisters = `
      <register><name>STCTRL</name><addressOffset>0x010</addressOffset></register>
      <register><name>STRELOAD</name><addressOffset>0x014</addressOffset></register>
      <register><name>STCURRENT</name><addressOffset>0x018</addressOffset></register>
      <register><dim>5</dim><dimIncrement>4</dimIncrement><name>EN%s</name><addressOffset>0x100</addressOffset></register>
      <register><dim>5</dim><dimIncrement>4</dimIncrement><name>DIS[%s]</name><addressOffset>0x180</addressOffset></register>
      <register><dim>35</dim><dimIncrement>0x4</dimIncrement><name>PRI%s</name><addressOffset>0x400</addressOffset></register>
      <register><name>SYSPRI1</name><addressOffset>0xD18</addressOffset></register>
      <register><name>SYSPRI2</name><addressOffset>0xD1C</addressOffset></register>
      <register><name>SYSPRI3</name><addressOffset>0xD20</addressOffset></register>
      <register><name>SYSHNDCTRL</name><addressOffset>0xD24</addressOffset></register>`

func device(prioBits, lastIRQ, registers string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<device>
  <name>TM4C123GH6PM</name>
  <vendor>Texas Instruments</vendor>
  <cpu><name>CM4</name><revision>r0p1</revision><nvicPrioBits>` + prioBits + `</nvicPrioBits></cpu>
  <peripherals>
    <peripheral>
      <name>GPIOA</name>
      <baseAddress>0x40004000</baseAddress>
      <interrupt><name>GPIOA</name><value>0</value></interrupt>
    </peripheral>
    <peripheral>
      <name>PWM1</name>
      <baseAddress>0x40029000</baseAddress>
      <interrupt><name>PWM1_FAULT</name><value>` + lastIRQ + `</value></interrupt>
    </peripheral>
    <peripheral>
      <name>NVIC</name>
      <baseAddress>0xE000E000</baseAddress>
      <registers>` + registers + `
      </registers>
    </peripheral>
  </peripherals>
</device>`
}

func TestRegisters(t *testing.T) {
	dev, err := Parse(strings.NewReader(device("3", "138", nvicRegisters)))
	if err != nil {
		t.Fatal(err)
	}
	regs := dev.Registers()
	tests := []struct {
		name string
		addr uintptr
	}{
		{"STCTRL", 0xE000E010},
		{"EN0", 0xE000E100},
		{"EN4", 0xE000E110},
		{"DIS3", 0xE000E18C},
		{"PRI34", 0xE000E488},
		{"SYSHNDCTRL", 0xE000ED24},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := regs[tc.name]; !ok || got != tc.addr {
				t.Errorf("expected %#x, got %#x (present %v)", tc.addr, got, ok)
			}
		})
	}
	if n := dev.IRQCount(); n != 139 {
		t.Errorf("expected 139 interrupts, got %d", n)
	}
}

func TestDerivedPeripheral(t *testing.T) {
	doc := `<device>
  <cpu><nvicPrioBits>3</nvicPrioBits></cpu>
  <peripherals>
    <peripheral>
      <name>SCS_TEMPLATE</name>
      <baseAddress>0xE000F000</baseAddress>
      <registers>` + nvicRegisters + `
      </registers>
    </peripheral>
    <peripheral derivedFrom="SCS_TEMPLATE">
      <name>NVIC</name>
      <baseAddress>0xE000E000</baseAddress>
    </peripheral>
    <peripheral derivedFrom="NOSUCH">
      <name>ORPHAN</name>
      <baseAddress>0x40000000</baseAddress>
    </peripheral>
  </peripherals>
</device>`
	dev, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Registers()["STCTRL"]; got != 0xE000E010 {
		t.Errorf("expected derived STCTRL at 0xe000e010, got %#x", got)
	}

	target, err := targets.All().Find("tm4c123")
	if err != nil {
		t.Fatal(err)
	}
	if err := Check(dev, target); err != nil {
		t.Errorf("derived registers not found: %v", err)
	}
}

func TestCheck(t *testing.T) {
	target, err := targets.All().Find("tm4c123gh6pm")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		doc  string
		want []error
	}{
		{name: "matching", doc: device("3", "138", nvicRegisters)},
		{name: "no priority bits", doc: device("", "138", nvicRegisters)},
		{
			name: "moved register",
			doc:  device("3", "138", strings.Replace(nvicRegisters, "0xD24", "0xD28", 1)),
			want: []error{ErrRegisterMismatch},
		},
		{
			name: "missing register",
			doc:  device("3", "138", strings.Replace(nvicRegisters, "STCURRENT", "CURRENT", 1)),
			want: []error{ErrRegisterMissing},
		},
		{
			name: "wrong target",
			doc:  device("4", "150", nvicRegisters),
			want: []error{ErrTargetMismatch},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev, err := Parse(strings.NewReader(tc.doc))
			if err != nil {
				t.Fatal(err)
			}
			err = Check(dev, target)
			if len(tc.want) == 0 && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tc.want {
				if !errors.Is(err, want) {
					t.Errorf("expected %v, got %v", want, err)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not xml", "registers", ErrInvalidDevice},
		{"no peripherals", "<device><name>x</name></device>", ErrInvalidDevice},
		{"bad integer", device("three", "138", nvicRegisters), ErrBadInteger},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.doc)); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
