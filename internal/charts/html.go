package charts

import (
	"html/template"
	"io"
	"strings"
)

var page = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-top: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.75rem; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Diagram}}<pre class="mermaid">{{.Diagram}}</pre>{{else}}<p>No data.</p>{{end}}
<table>
<thead><tr><th></th>{{range .Datasets}}<th>{{.Label}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Label}}</td>{{range .Values}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type htmlRow struct {
	Label  string
	Values []int
}

// WriteHTML writes c as a standalone page: the Mermaid diagram followed by
// the data as a table.
func WriteHTML(w io.Writer, c Chart) error {
	diagram := strings.TrimSuffix(strings.TrimPrefix(Mermaid(c), "```mermaid\n"), "```")
	rows := make([]htmlRow, len(c.Labels))
	for i, l := range c.Labels {
		rows[i].Label = l
		for _, d := range c.Datasets {
			v := 0
			if i < len(d.Data) {
				v = d.Data[i]
			}
			rows[i].Values = append(rows[i].Values, v)
		}
	}
	return page.Execute(w, struct {
		Title    string
		Diagram  string
		Datasets []Dataset
		Rows     []htmlRow
	}{c.Title, diagram, c.Datasets, rows})
}
