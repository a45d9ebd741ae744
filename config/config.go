// Package config loads board configuration files.
//
// A board file names a target from the catalogue and overrides the parts of
// it that depend on how the board is clocked and how strictly the drivers
// should treat invalid input:
//
//	target: tm4c123gh6pm
//	systickClockHz: 80000000
//	strict: true
//	logLevel: debug
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"omibyte.io/tm4c/nvic"
	"omibyte.io/tm4c/systick"
	"omibyte.io/tm4c/targets"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultTarget is used when a board file does not name one.
const DefaultTarget = "tm4c123gh6pm"

type File struct {
	Target         string `yaml:"target"`
	SysTickClockHz uint32 `yaml:"systickClockHz"`
	Strict         bool   `yaml:"strict"`
	LogLevel       string `yaml:"logLevel"`
}

// Board is a resolved configuration.
type Board struct {
	Target  targets.TargetInfo
	ClockHz uint32
	Strict  bool
	Level   slog.Level
}

// Default returns the configuration of an unmodified DefaultTarget board.
func Default() (*Board, error) {
	return File{}.Resolve(targets.All())
}

// Load reads and resolves the board file at path.
func Load(path string) (*Board, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	board, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return board, nil
}

// Parse decodes and resolves a board document.
func Parse(b []byte) (*Board, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return f.Resolve(targets.All())
}

// Resolve layers f over the catalogue entry it names.
func (f File) Resolve(catalogue targets.Targets) (*Board, error) {
	name := f.Target
	if name == "" {
		name = DefaultTarget
	}
	target, err := catalogue.Find(name)
	if err != nil {
		return nil, err
	}

	board := &Board{
		Target:  target,
		ClockHz: target.SysTickClockHz,
		Strict:  f.Strict,
	}
	if f.SysTickClockHz != 0 {
		board.ClockHz = f.SysTickClockHz
	}
	if f.LogLevel != "" {
		if err := board.Level.UnmarshalText([]byte(f.LogLevel)); err != nil {
			return nil, fmt.Errorf("%w: log level: %w", ErrInvalidConfig, err)
		}
	}
	return board, nil
}

// Logger returns a text logger writing to w at the board's level.
func (b *Board) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: b.Level}))
}

func (b *Board) NVICOptions(log *slog.Logger) nvic.Options {
	return nvic.Options{Logger: log, Strict: b.Strict}
}

func (b *Board) SysTickOptions(log *slog.Logger, slot *systick.Slot) systick.Options {
	return systick.Options{ClockHz: b.ClockHz, Slot: slot, Logger: log, Strict: b.Strict}
}
