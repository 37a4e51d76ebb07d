// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// scan reports.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/declscan/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a DirectoryReport into TOON format.
func Encode(r *model.DirectoryReport) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, fmt.Sprintf("language: %s", encodeValue(r.Language)))

	var fileRows, fnRows, methodRows [][]any
	for i := range r.Files {
		f := &r.Files[i]
		fileRows = append(fileRows, []any{f.Path, f.Language, f.Error})
		for _, fn := range f.Functions {
			fnRows = append(fnRows, []any{
				f.Path,
				fn.Name,
				string(fn.Kind),
				fn.IsAsync,
			})
		}
		for _, cls := range f.Classes {
			for _, m := range cls.Methods {
				methodRows = append(methodRows, []any{
					f.Path,
					cls.Name,
					m.Name,
					string(m.Kind),
					m.IsStatic,
					m.IsAsync,
				})
			}
		}
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "error"}, fileRows))
	parts = append(parts, formatTabular("functions", []string{"file", "name", "type", "async"}, fnRows))
	parts = append(parts, formatTabular("methods", []string{"file", "class", "name", "type", "static", "async"}, methodRows))

	if len(r.Diagnostics.Warnings) > 0 {
		var warnRows [][]any
		for _, w := range r.Diagnostics.Warnings {
			warnRows = append(warnRows, []any{w.Path, w.Message})
		}
		parts = append(parts, formatTabular("warnings", []string{"path", "message"}, warnRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

// encodeCell writes booleans and integers as bare literals and everything else
// as a string value.
func encodeCell(cell any) string {
	switch v := cell.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return encodeValue(v)
	default:
		return encodeValue(fmt.Sprint(v))
	}
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
