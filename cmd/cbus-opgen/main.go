// Command cbus-opgen generates the opcode table of package cbus from its
// YAML catalogue.
//
// Usage:
//
//	cbus-opgen -in pkg/cbus/opcodes.yaml -out pkg/cbus/opcodes_gen.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"golang.org/x/tools/imports"
)

func main() {
	in := flag.StringP("in", "i", "", "Path to opcodes.yaml")
	out := flag.StringP("out", "o", "", "Output Go file")
	pkg := flag.String("package", "cbus", "Package name of the generated file")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "Usage: cbus-opgen -in <opcodes.yaml> -out <file.go> [--package <name>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*in, *out, *pkg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, pkg string) error {
	c, err := LoadCatalogue(in)
	if err != nil {
		return fmt.Errorf("loading catalogue: %w", err)
	}

	code, err := Generate(c, pkg)
	if err != nil {
		return fmt.Errorf("generating opcodes: %w", err)
	}
	if err := writeFormatted(out, code); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(out), err)
	}
	fmt.Printf("  generated %s (%d opcodes, %d events)\n", out, len(c.Opcodes), len(c.Events()))
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Unformatted output is kept for debugging the template.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
