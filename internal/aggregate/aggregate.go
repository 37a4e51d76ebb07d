// Package aggregate assembles classified declarations into file and
// directory reports.
package aggregate

import (
	"github.com/phobologic/declscan/internal/classify"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/model"
)

// File partitions res into module-level functions and per-class records.
// Class records follow res.Classes order; members keep source order.
func File(path, language string, res *classify.Result) model.FileReport {
	report := model.FileReport{Path: path, Language: language}
	if res == nil {
		return report
	}

	index := make(map[string]int, len(res.Classes))
	for _, id := range res.Classes {
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(report.Classes)
		report.Classes = append(report.Classes, model.ClassRecord{Name: id})
	}

	for _, d := range res.Declarations {
		report.Symbols = append(report.Symbols, d.QualifiedName())
		if d.Class == "" {
			if !d.Kind.IsMember() {
				report.Functions = append(report.Functions, d)
			}
			continue
		}
		i, ok := index[d.Class]
		if !ok {
			i = len(report.Classes)
			index[d.Class] = i
			report.Classes = append(report.Classes, model.ClassRecord{Name: d.Class})
		}
		report.Classes[i].Methods = append(report.Classes[i].Methods, d)
	}
	return report
}

// Failed returns the empty report for a file whose front end or classifier
// failed, plus the matching diagnostic.
func Failed(path, language string, err error) (model.FileReport, model.Failure) {
	kind := errs.KindOf(err)
	if kind == "" {
		kind = errs.ParseError
	}
	msg := err.Error()
	return model.FileReport{Path: path, Language: language, Error: msg},
		model.Failure{Path: path, Kind: string(kind), Message: msg}
}

// Merge combines per-file reports in the given (traversal) order. Reports are
// neither renamed nor deduplicated.
func Merge(root, language string, files []model.FileReport, diags model.Diagnostics) *model.DirectoryReport {
	if files == nil {
		files = []model.FileReport{}
	}
	return &model.DirectoryReport{
		Root:        root,
		Language:    language,
		Files:       files,
		Diagnostics: diags,
	}
}
