// Package targets is the catalogue of supported devices.
package targets

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"omibyte.io/tm4c/nvic"
	"omibyte.io/tm4c/regmap"
)

//go:embed targets.yaml
var rawTargets []byte

var targets Targets

type Targets []TargetInfo

type TargetInfo struct {
	Series         string   `yaml:"series"`
	Chips          []string `yaml:"chips"`
	Cpu            string   `yaml:"cpu"`
	SysTickClockHz uint32   `yaml:"systickClockHz"`
	IRQCount       int      `yaml:"irqCount"`
	PriorityBits   int      `yaml:"priorityBits"`
	SCSBase        uint64   `yaml:"scsBase"`
}

func (t TargetInfo) Validate() error {
	var errs []error
	if t.Series == "" {
		errs = append(errs, errors.New("missing series"))
	}
	if t.SysTickClockHz == 0 {
		errs = append(errs, errors.New("missing SysTick clock"))
	}
	// The drivers address a fixed set of lines and priority bits.
	if t.IRQCount != int(nvic.MaxIRQ)+1 {
		errs = append(errs, fmt.Errorf("irq count %d, drivers handle %d", t.IRQCount, nvic.MaxIRQ+1))
	}
	if t.PriorityBits != regmap.PriorityBits {
		errs = append(errs, fmt.Errorf("priority bits %d, drivers handle %d", t.PriorityBits, regmap.PriorityBits))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidTarget, t.Series, errors.Join(errs...))
	}
	return nil
}

func All() Targets {
	return targets
}

func (t Targets) FindBySeries(name string) (TargetInfo, error) {
	for _, target := range t {
		if target.Series == strings.ToLower(name) {
			return target, nil
		}
	}
	return TargetInfo{}, fmt.Errorf("%w: series %q", ErrTargetNotFound, name)
}

func (t Targets) FindByChip(name string) (TargetInfo, error) {
	for _, target := range t {
		if slices.Contains(target.Chips, strings.ToLower(name)) {
			return target, nil
		}
	}
	return TargetInfo{}, fmt.Errorf("%w: chip %q", ErrTargetNotFound, name)
}

// Find looks name up as a chip first, then as a series.
func (t Targets) Find(name string) (TargetInfo, error) {
	if target, err := t.FindByChip(name); err == nil {
		return target, nil
	}
	return t.FindBySeries(name)
}

// Parse decodes a catalogue document.
func Parse(b []byte) (Targets, error) {
	var t struct {
		Elements Targets `yaml:"targets"`
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	for _, target := range t.Elements {
		if err := target.Validate(); err != nil {
			return nil, err
		}
	}
	return t.Elements, nil
}

func init() {
	t, err := Parse(rawTargets)
	if err != nil {
		panic(err)
	}
	targets = t
}
