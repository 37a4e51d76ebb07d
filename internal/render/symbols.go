package render

import (
	"bufio"
	"io"

	"github.com/phobologic/declscan/internal/model"
)

// Symbols writes one "文件: <path>" header per file followed by its qualified
// declaration names in source order. Files without declarations are omitted.
func Symbols(w io.Writer, r *model.DirectoryReport) error {
	bw := bufio.NewWriter(w)
	for i := range r.Files {
		f := &r.Files[i]
		if len(f.Symbols) == 0 {
			continue
		}
		bw.WriteString("文件: " + f.Path + "\n")
		for _, name := range f.Symbols {
			bw.WriteString("  - " + name + "\n")
		}
	}
	return bw.Flush()
}
