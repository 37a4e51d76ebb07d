// Package render serializes a DirectoryReport in the supported output formats.
package render

import (
	"io"

	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/model"
	"github.com/phobologic/declscan/internal/toon"
)

// Write renders r to w in the named format.
func Write(w io.Writer, format string, r *model.DirectoryReport) error {
	switch format {
	case "", "json":
		return JSON(w, r)
	case "text":
		return Text(w, r)
	case "html":
		return HTML(w, r)
	case "symbols":
		return Symbols(w, r)
	case "toon":
		_, err := io.WriteString(w, toon.Encode(r)+"\n")
		return err
	default:
		return errs.New(errs.ConfigError, "unknown output format %q", format)
	}
}
