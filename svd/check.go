package svd

import (
	"errors"
	"fmt"

	"omibyte.io/tm4c/regmap"
	"omibyte.io/tm4c/targets"
)

// Check compares the driver register map and the target entry with dev. All
// disagreements are returned together.
func Check(dev *Device, target targets.TargetInfo) error {
	var errs []error
	regs := dev.Registers()
	for _, r := range regmap.All() {
		addr, ok := regs[r.Name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s", ErrRegisterMissing, r.Name))
		case addr != r.Addr:
			errs = append(errs, fmt.Errorf("%w: %s is %#x, device has %#x", ErrRegisterMismatch, r.Name, r.Addr, addr))
		}
	}

	if bits := int(dev.CPU.NVICPriorityBits); bits != 0 && bits != target.PriorityBits {
		errs = append(errs, fmt.Errorf("%w: %d priority bits, device has %d", ErrTargetMismatch, target.PriorityBits, bits))
	}
	if n := dev.IRQCount(); n > target.IRQCount {
		errs = append(errs, fmt.Errorf("%w: %d interrupts, device declares %d", ErrTargetMismatch, target.IRQCount, n))
	}
	return errors.Join(errs...)
}
