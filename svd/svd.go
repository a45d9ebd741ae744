// Package svd reads CMSIS System View Description files far enough to check
// the register map and the device catalogue against a vendor description.
package svd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Integer uint64

func (n *Integer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v string
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		*n = 0
		return nil
	}
	value, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadInteger, v)
	}
	*n = Integer(value)
	return nil
}

type Device struct {
	Name        string       `xml:"name"`
	Series      string       `xml:"series"`
	Vendor      string       `xml:"vendor"`
	CPU         CPU          `xml:"cpu"`
	Peripherals []Peripheral `xml:"peripherals>peripheral"`
}

type CPU struct {
	Name             string  `xml:"name"`
	Revision         string  `xml:"revision"`
	NVICPriorityBits Integer `xml:"nvicPrioBits"`
}

type Peripheral struct {
	Name        string      `xml:"name"`
	BaseAddress Integer     `xml:"baseAddress"`
	Interrupts  []Interrupt `xml:"interrupt"`
	Registers   []Register  `xml:"registers>register"`
	DerivedFrom string      `xml:"derivedFrom,attr"`
}

type Interrupt struct {
	Name  string  `xml:"name"`
	Value Integer `xml:"value"`
}

type Register struct {
	Name          string  `xml:"name"`
	AddressOffset Integer `xml:"addressOffset"`
	Count         Integer `xml:"dim"`
	Increment     Integer `xml:"dimIncrement"`
}

// Parse decodes an SVD document.
func Parse(r io.Reader) (*Device, error) {
	var dev Device
	if err := xml.NewDecoder(r).Decode(&dev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	if len(dev.Peripherals) == 0 {
		return nil, fmt.Errorf("%w: no peripherals", ErrInvalidDevice)
	}
	return &dev, nil
}

// Load reads the SVD file at path.
func Load(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dev, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dev, nil
}

// peripheral returns the peripheral called name.
func (d *Device) peripheral(name string) (Peripheral, bool) {
	for _, p := range d.Peripherals {
		if p.Name == name {
			return p, true
		}
	}
	return Peripheral{}, false
}

// Registers returns the absolute address of every register of every
// peripheral, keyed by upper-case register name. Register arrays are
// expanded with their index in place of "%s". A derived peripheral without
// registers of its own uses the registers of its base at its own address.
func (d *Device) Registers() map[string]uintptr {
	regs := make(map[string]uintptr)
	for _, p := range d.Peripherals {
		registers := p.Registers
		if len(registers) == 0 && p.DerivedFrom != "" {
			if base, ok := d.peripheral(p.DerivedFrom); ok {
				registers = base.Registers
			}
		}
		for _, r := range registers {
			base := uintptr(p.BaseAddress) + uintptr(r.AddressOffset)
			if r.Count == 0 {
				regs[strings.ToUpper(r.Name)] = base
				continue
			}
			name := strings.NewReplacer("[%s]", "%s").Replace(r.Name)
			for i := uintptr(0); i < uintptr(r.Count); i++ {
				n := strings.Replace(name, "%s", strconv.Itoa(int(i)), 1)
				regs[strings.ToUpper(n)] = base + i*uintptr(r.Increment)
			}
		}
	}
	return regs
}

// IRQCount is one more than the highest interrupt number any peripheral
// declares.
func (d *Device) IRQCount() int {
	count := 0
	for _, p := range d.Peripherals {
		for _, irq := range p.Interrupts {
			if int(irq.Value)+1 > count {
				count = int(irq.Value) + 1
			}
		}
	}
	return count
}
