package server

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;margin:1rem 0}td,th{border:1px solid #ccc;padding:.25rem .5rem;text-align:left}
th{background:#f3f3f3}.notes li{color:#8a5a00}code{background:#f3f3f3;padding:0 .25rem}`

// layout wraps body in the page shell.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>"+
			templ.EscapeString(title)+" · tabloom</title><style>"+pageStyle+"</style></head><body>"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// datasetPage renders a profile with links to the dataset's API endpoints.
func datasetPage(d *dataset, rep *analysis.Report) templ.Component {
	return layout(d.Name, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, "<h1>%s</h1>", templ.EscapeString(d.Name))
		fmt.Fprintf(&b, "<p>%d rows · %d columns · uploaded %s</p>", rep.Rows, len(rep.Cols),
			templ.EscapeString(d.Uploaded.Format("2006-01-02 15:04:05")))

		b.WriteString("<h2>Schema</h2><table><tr><th>column</th><th>kind</th><th>non-null</th><th>missing</th><th>unique</th><th>detail</th></tr>")
		for _, c := range rep.Cols {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%s</td></tr>",
				templ.EscapeString(c.Name), templ.EscapeString(c.Kind), c.NonNull, c.Missing, c.Unique,
				templ.EscapeString(columnDetail(c)))
		}
		b.WriteString("</table>")

		if rep.Corr != nil {
			if pairs := rep.Corr.TopPairs(5); len(pairs) > 0 {
				b.WriteString("<h2>Strongest correlations</h2><ul>")
				for _, p := range pairs {
					fmt.Fprintf(&b, "<li>%s ~ %s: r=%.3f</li>", templ.EscapeString(p.A), templ.EscapeString(p.B), p.R)
				}
				b.WriteString("</ul>")
			}
		}

		if len(rep.Samples) > 0 {
			b.WriteString("<h2>First rows</h2><table><tr>")
			for _, c := range rep.Cols {
				fmt.Fprintf(&b, "<th>%s</th>", templ.EscapeString(c.Name))
			}
			b.WriteString("</tr>")
			for _, row := range rep.Samples {
				b.WriteString("<tr>")
				for _, v := range row {
					fmt.Fprintf(&b, "<td>%s</td>", templ.EscapeString(v))
				}
				b.WriteString("</tr>")
			}
			b.WriteString("</table>")
		}

		if len(rep.Warnings) > 0 {
			b.WriteString("<h2>Notes</h2><ul class=\"notes\">")
			for _, n := range rep.Warnings {
				fmt.Fprintf(&b, "<li>%s</li>", templ.EscapeString(n))
			}
			b.WriteString("</ul>")
		}

		api := "/api/datasets/" + d.ID
		b.WriteString("<h2>API</h2><ul>")
		for _, ep := range []string{"GET " + api, "POST " + api + "/query", "POST " + api + "/chart", "POST " + api + "/export?format=csv"} {
			fmt.Fprintf(&b, "<li><code>%s</code></li>", templ.EscapeString(ep))
		}
		b.WriteString("</ul>")

		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func columnDetail(c analysis.ColumnSummary) string {
	switch c.Kind {
	case "numeric":
		s := fmt.Sprintf("min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean)
		if c.OutliersCount > 0 {
			s += fmt.Sprintf(", %d outlier(s)", c.OutliersCount)
		}
		return s
	case "categorical":
		parts := make([]string, 0, len(c.TopValues))
		for _, kv := range c.TopValues {
			parts = append(parts, fmt.Sprintf("%s (%d)", kv.Value, kv.Count))
		}
		return strings.Join(parts, ", ")
	case "text":
		return strings.Join(c.ExampleTexts, " | ")
	}
	return ""
}

func errorPage(status int, code, msg string) templ.Component {
	return layout("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>%d %s</h1><p>%s</p>", status, templ.EscapeString(code), templ.EscapeString(msg))
		return err
	}))
}
