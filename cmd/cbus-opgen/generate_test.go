package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
opcodes:
  - {name: RTON, code: 0x09, description: Request track on}
  - {name: ACK, code: 0x00, description: General acknowledgement}
  - {name: ACON, code: 0x90, event: true, description: Accessory on}
`

func TestParseCatalogueSortsByCode(t *testing.T) {
	c, err := ParseCatalogue([]byte(sample))
	if err != nil {
		t.Fatalf("ParseCatalogue: %v", err)
	}
	var names []string
	for _, op := range c.Opcodes {
		names = append(names, op.Name)
	}
	if got := strings.Join(names, ","); got != "ACK,RTON,ACON" {
		t.Errorf("order = %s", got)
	}
	if ev := c.Events(); len(ev) != 1 || ev[0].Name != "ACON" {
		t.Errorf("events = %+v", ev)
	}
}

func TestParseCatalogueRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"duplicate name", "opcodes:\n  - {name: ACK, code: 0}\n  - {name: ACK, code: 1}\n", errDuplicate},
		{"duplicate code", "opcodes:\n  - {name: ACK, code: 0}\n  - {name: NAK, code: 0}\n", errDuplicate},
		{"lower case", "opcodes:\n  - {name: ack, code: 0}\n", errInvalidName},
		{"too large", "opcodes:\n  - {name: BIG, code: 256}\n", errOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	c, err := ParseCatalogue([]byte(sample))
	if err != nil {
		t.Fatalf("ParseCatalogue: %v", err)
	}
	code, err := Generate(c, "cbus")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"// Code generated by cbus-opgen. DO NOT EDIT.",
		"package cbus",
		"OpRTON Opcode = 0x09 // Request track on",
		`OpACK: "ACK",`,
		"OpACON: true,",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("missing %q in:\n%s", want, code)
		}
	}
	if strings.Contains(code, "OpRTON: true") {
		t.Error("RTON must not be an event opcode")
	}
}

func TestRunWritesFormattedFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "opcodes.yaml")
	out := filepath.Join(dir, "opcodes_gen.go")
	if err := os.WriteFile(in, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(in, out, "cbus"); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// gofmt aligns the constant block.
	if !strings.Contains(string(data), "OpACK  Opcode = 0x00") {
		t.Errorf("output not formatted:\n%s", data)
	}
}

func TestRunCatalogueInRepo(t *testing.T) {
	c, err := LoadCatalogue(filepath.Join("..", "..", "pkg", "cbus", "opcodes.yaml"))
	if err != nil {
		t.Fatalf("LoadCatalogue: %v", err)
	}
	if len(c.Opcodes) == 0 || len(c.Events()) == 0 {
		t.Errorf("catalogue has %d opcodes, %d events", len(c.Opcodes), len(c.Events()))
	}
}
