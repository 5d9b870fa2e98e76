package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	errDuplicate   = errors.New("duplicate opcode")
	errInvalidName = errors.New("invalid opcode name")
	errOutOfRange  = errors.New("opcode out of range")
)

var namePattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// RawOpcode is one catalogue entry.
type RawOpcode struct {
	Name        string `yaml:"name"`
	Code        int    `yaml:"code"`
	Event       bool   `yaml:"event"`
	Description string `yaml:"description"`
}

// Catalogue is the parsed opcodes.yaml.
type Catalogue struct {
	Opcodes []RawOpcode `yaml:"opcodes"`
}

// LoadCatalogue reads and validates a catalogue file.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes a catalogue, checks it and sorts it by code.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(c.Opcodes, func(i, j int) bool {
		return c.Opcodes[i].Code < c.Opcodes[j].Code
	})
	return &c, nil
}

func (c *Catalogue) validate() error {
	names := make(map[string]bool, len(c.Opcodes))
	codes := make(map[int]string, len(c.Opcodes))
	for _, op := range c.Opcodes {
		if !namePattern.MatchString(op.Name) {
			return fmt.Errorf("%w: %q", errInvalidName, op.Name)
		}
		if op.Code < 0 || op.Code > 0xFF {
			return fmt.Errorf("%w: %s = %d", errOutOfRange, op.Name, op.Code)
		}
		if names[op.Name] {
			return fmt.Errorf("%w: name %s", errDuplicate, op.Name)
		}
		if other, ok := codes[op.Code]; ok {
			return fmt.Errorf("%w: 0x%02X used by %s and %s", errDuplicate, op.Code, other, op.Name)
		}
		names[op.Name] = true
		codes[op.Code] = op.Name
	}
	return nil
}

// Events returns the entries that carry producer events.
func (c *Catalogue) Events() []RawOpcode {
	var out []RawOpcode
	for _, op := range c.Opcodes {
		if op.Event {
			out = append(out, op)
		}
	}
	return out
}
