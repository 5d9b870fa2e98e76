package main

import (
	"fmt"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"hexByte": func(v int) string { return fmt.Sprintf("0x%02X", v) },
	"quote":   func(s string) string { return fmt.Sprintf("%q", s) },
}

const opcodesTmpl = `// Code generated by cbus-opgen. DO NOT EDIT.

package {{.Package}}

// CBUS opcodes known to the command station.
const (
{{- range .Catalogue.Opcodes}}
	Op{{.Name}} Opcode = {{hexByte .Code}}{{if .Description}} // {{.Description}}{{end}}
{{- end}}
)

// opcodeNames maps each catalogued opcode to its mnemonic.
var opcodeNames = map[Opcode]string{
{{- range .Catalogue.Opcodes}}
	Op{{.Name}}: {{quote .Name}},
{{- end}}
}

// eventOpcodes holds the opcodes that carry CBUS producer events.
var eventOpcodes = map[Opcode]bool{
{{- range .Catalogue.Events}}
	Op{{.Name}}: true,
{{- end}}
}
`

var templates = template.Must(template.New("opcodes").Funcs(funcMap).Parse(opcodesTmpl))

// Generate renders the catalogue as Go source for package pkg.
func Generate(c *Catalogue, pkg string) (string, error) {
	var b strings.Builder
	data := struct {
		Package   string
		Catalogue *Catalogue
	}{pkg, c}
	if err := templates.Execute(&b, data); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}
	return b.String(), nil
}
