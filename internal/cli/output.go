package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// outputFormat is the global --output flag value.
var outputFormat = "table"

// render writes v as YAML when requested, otherwise calls table with a
// tabwriter over stdout.
func render(v any, table func(w io.Writer)) error {
	return renderTo(os.Stdout, outputFormat, v, table)
}

func renderTo(out io.Writer, format string, v any, table func(w io.Writer)) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table or yaml)", format)
	}
}

// orDash returns s or "-" when empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// deref returns *p or fallback when p is nil.
func deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
