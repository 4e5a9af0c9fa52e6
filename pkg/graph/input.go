package graph

import (
	"fmt"
	"strings"
)

const inputPartSeparator = "\n\n---\n\n"

// CombineInputValue composes the value an input node sends downstream from
// its raw text, URL and file fields. Empty parts are skipped.
func CombineInputValue(d *InputData) string {
	var parts []string

	if text := strings.TrimSpace(d.TextValue); text != "" {
		parts = append(parts, text)
	}
	if url := strings.TrimSpace(d.URLValue); url != "" {
		parts = append(parts, "Context URL: "+url)
	}
	if d.FileContent != "" {
		name := d.FileName
		if name == "" {
			name = "uploaded file"
		}
		parts = append(parts, fmt.Sprintf("File Content (%s):\n%s", name, d.FileContent))
	}

	return strings.Join(parts, inputPartSeparator)
}

// Recombine recomputes Value from the raw fields.
func (d *InputData) Recombine() {
	d.Value = CombineInputValue(d)
}

// MigrateLegacyInput moves a bare value written by older files into the
// text field so that later edits recombine it correctly.
func MigrateLegacyInput(d *InputData) {
	if d.Value != "" && d.TextValue == "" && d.URLValue == "" && d.FileContent == "" {
		d.TextValue = d.Value
	}
}
