package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
)

// render writes v in the selected format. The table writer is used for the
// default format.
func render(v any, table func(w *tabwriter.Writer)) error {
	return renderTo(os.Stdout, output, v, table)
}

func renderTo(out io.Writer, format string, v any, table func(w *tabwriter.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case "yaml":
		// Go through JSON so the json tags and custom codecs decide the shape.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()

	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()

	default:
		return apperrors.BadRequest(fmt.Sprintf("unknown output format %q", format))
	}
}
