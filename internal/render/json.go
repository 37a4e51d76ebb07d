package render

import (
	"encoding/json"
	"io"

	"github.com/phobologic/declscan/internal/model"
)

type jsonReport struct {
	Files       []jsonFile       `json:"files"`
	Diagnostics *jsonDiagnostics `json:"diagnostics,omitempty"`
}

type jsonFile struct {
	Path      string         `json:"path"`
	Functions []jsonFunction `json:"functions"`
	Classes   []jsonClass    `json:"classes"`
	Error     string         `json:"error,omitempty"`
}

type jsonFunction struct {
	Name  string     `json:"name"`
	Type  model.Kind `json:"type"`
	Async bool       `json:"async"`
}

type jsonClass struct {
	Name    string       `json:"name"`
	Methods []jsonMethod `json:"methods"`
}

type jsonMethod struct {
	Name   string     `json:"name"`
	Type   model.Kind `json:"type"`
	Static bool       `json:"static"`
	Async  bool       `json:"async"`
}

type jsonDiagnostics struct {
	Failed   []jsonFailure `json:"failed,omitempty"`
	Warnings []jsonWarning `json:"warnings,omitempty"`
}

type jsonFailure struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type jsonWarning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// JSON writes the canonical report: two-space indentation, every list present
// even when empty, diagnostics only when something went wrong.
func JSON(w io.Writer, r *model.DirectoryReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(toJSON(r))
}

func toJSON(r *model.DirectoryReport) jsonReport {
	out := jsonReport{Files: make([]jsonFile, 0, len(r.Files))}
	for i := range r.Files {
		f := &r.Files[i]
		jf := jsonFile{
			Path:      f.Path,
			Functions: make([]jsonFunction, 0, len(f.Functions)),
			Classes:   make([]jsonClass, 0, len(f.Classes)),
			Error:     f.Error,
		}
		for _, fn := range f.Functions {
			jf.Functions = append(jf.Functions, jsonFunction{Name: fn.Name, Type: fn.Kind, Async: fn.IsAsync})
		}
		for _, cls := range f.Classes {
			jc := jsonClass{Name: cls.Name, Methods: make([]jsonMethod, 0, len(cls.Methods))}
			for _, m := range cls.Methods {
				jc.Methods = append(jc.Methods, jsonMethod{Name: m.Name, Type: m.Kind, Static: m.IsStatic, Async: m.IsAsync})
			}
			jf.Classes = append(jf.Classes, jc)
		}
		out.Files = append(out.Files, jf)
	}

	if !r.Diagnostics.Empty() {
		d := &jsonDiagnostics{}
		for _, f := range r.Diagnostics.Failed {
			d.Failed = append(d.Failed, jsonFailure(f))
		}
		for _, wn := range r.Diagnostics.Warnings {
			d.Warnings = append(d.Warnings, jsonWarning(wn))
		}
		out.Diagnostics = d
	}
	return out
}
