package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phobologic/declscan/internal/model"
)

type textStyles struct {
	path    lipgloss.Style
	class   lipgloss.Style
	kind    lipgloss.Style
	flag    lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	summary lipgloss.Style
}

// newTextStyles binds styles to w's renderer, so colors are only emitted when
// w is a terminal.
func newTextStyles(w io.Writer) textStyles {
	re := lipgloss.NewRenderer(w)
	return textStyles{
		path:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")),
		class:   re.NewStyle().Bold(true),
		kind:    re.NewStyle().Foreground(lipgloss.Color("#64748B")),
		flag:    re.NewStyle().Foreground(lipgloss.Color("#10B981")),
		failure: re.NewStyle().Foreground(lipgloss.Color("#F87171")),
		warning: re.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		summary: re.NewStyle().Faint(true),
	}
}

// Text writes a human readable listing, one block per file, followed by
// failures and warnings.
func Text(w io.Writer, r *model.DirectoryReport) error {
	st := newTextStyles(w)
	var b strings.Builder

	for i := range r.Files {
		f := &r.Files[i]
		b.WriteString(st.path.Render(f.Path))
		b.WriteByte('\n')
		if f.Failed() {
			fmt.Fprintf(&b, "  %s\n", st.failure.Render("error: "+f.Error))
			continue
		}
		for _, fn := range f.Functions {
			fmt.Fprintf(&b, "  %s %s%s\n", fn.Name, st.kind.Render(string(fn.Kind)), flags(st, fn))
		}
		for _, cls := range f.Classes {
			fmt.Fprintf(&b, "  %s %s\n", st.kind.Render("class"), st.class.Render(cls.Name))
			for _, m := range cls.Methods {
				fmt.Fprintf(&b, "    %s %s%s\n", m.Name, st.kind.Render(string(m.Kind)), flags(st, m))
			}
		}
	}

	if len(r.Diagnostics.Failed) > 0 {
		b.WriteString("\n" + st.failure.Render("Failed:") + "\n")
		for _, f := range r.Diagnostics.Failed {
			fmt.Fprintf(&b, "  %s [%s] %s\n", f.Path, f.Kind, f.Message)
		}
	}
	if len(r.Diagnostics.Warnings) > 0 {
		b.WriteString("\n" + st.warning.Render("Warnings:") + "\n")
		for _, wn := range r.Diagnostics.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", wn.Path, wn.Message)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", st.summary.Render(fmt.Sprintf("%d files, %d declarations, %d failed",
		len(r.Files), r.DeclarationCount(), len(r.Diagnostics.Failed))))

	_, err := io.WriteString(w, b.String())
	return err
}

func flags(st textStyles, d model.Declaration) string {
	var out []string
	if d.IsStatic {
		out = append(out, "static")
	}
	if d.IsAsync {
		out = append(out, "async")
	}
	if len(out) == 0 {
		return ""
	}
	return " " + st.flag.Render(strings.Join(out, " "))
}
