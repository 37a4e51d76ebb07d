package render

import (
	"html/template"
	"io"

	"github.com/phobologic/declscan/internal/model"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>declscan: {{.Root}}</title>
<style>
body { font-family: ui-monospace, monospace; margin: 2em; color: #1e293b; }
h2 { font-size: 1em; color: #3b82f6; margin-bottom: 0.25em; }
ul { margin-top: 0; }
.kind { color: #64748b; }
.flag { color: #10b981; }
.error { color: #dc2626; }
.warning { color: #b45309; }
</style>
</head>
<body>
<h1>{{.Language}} declarations in {{.Root}}</h1>
{{range .Files}}<section>
<h2>{{.Path}}</h2>
{{if .Error}}<p class="error">{{.Error}}</p>
{{else}}<ul>
{{range .Functions}}<li>{{.Name}} <span class="kind">{{.Kind}}</span>{{if .IsAsync}} <span class="flag">async</span>{{end}}</li>
{{end}}{{range .Classes}}<li>class <strong>{{.Name}}</strong>
<ul>
{{range .Methods}}<li>{{.Name}} <span class="kind">{{.Kind}}</span>{{if .IsStatic}} <span class="flag">static</span>{{end}}{{if .IsAsync}} <span class="flag">async</span>{{end}}</li>
{{end}}</ul>
</li>
{{end}}</ul>
{{end}}</section>
{{end}}{{with .Diagnostics}}{{if .Failed}}<h2 class="error">Failed</h2>
<ul>
{{range .Failed}}<li>{{.Path}} [{{.Kind}}] {{.Message}}</li>
{{end}}</ul>
{{end}}{{if .Warnings}}<h2 class="warning">Warnings</h2>
<ul>
{{range .Warnings}}<li>{{.Path}} {{.Message}}</li>
{{end}}</ul>
{{end}}{{end}}</body>
</html>
`))

// HTML writes a self-contained page with one section per file.
func HTML(w io.Writer, r *model.DirectoryReport) error {
	return pageTemplate.Execute(w, r)
}
