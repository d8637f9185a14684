package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

// Format is an export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a user supplied format, defaulting to PDF.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatHTML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/pdf"
	}
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006 15:04")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1b263b; margin: 32px; }
h1 { font-size: 22px; margin-bottom: 4px; }
h2 { font-size: 16px; margin-top: 28px; }
.range { color: #646464; font-size: 12px; }
table { width: 100%; border-collapse: collapse; font-size: 12px; }
th { background: #1b263b; color: #fff; text-align: left; padding: 6px; }
td { border: 1px solid #d0d4da; padding: 6px; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="range">{{.RangeLabel}}</p>
{{- if .Summary}}
<h2>Financial Summary</h2>
<table>
{{- range .Summary}}
<tr><td>{{.Label}}</td><td class="num">{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Transactions}}
<h2>Transaction List</h2>
<table>
<tr><th>Date</th><th>Type</th><th>Description</th><th>Amount</th></tr>
{{- range .Transactions}}
<tr><td>{{.Date}}</td><td>{{.Type}}</td><td>{{.Description}}</td><td class="num">{{.Amount}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Inventory}}
<h2>Current Inventory Status</h2>
<table>
<tr><th>Item Name</th><th>Quantity</th><th>Purchase Price</th><th>Selling Price</th></tr>
{{- range .Inventory}}
<tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.PurchasePrice}}</td><td class="num">{{.SellingPrice}}</td></tr>
{{- end}}
</table>
{{- end}}
<p class="range">Generated {{formatDate .GeneratedAt}}</p>
</body>
</html>
`))

// RenderHTML writes rep as a standalone HTML document.
func RenderHTML(w io.Writer, rep Report) error {
	if err := reportTemplate.Execute(w, rep); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// RenderCSV writes each present section as a block of rows separated by an
// empty record.
func RenderCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	records := [][]string{{rep.Title}, {rep.RangeLabel}}

	if rep.Summary != nil {
		records = append(records, nil, []string{"Financial Summary"})
		for _, row := range rep.Summary {
			records = append(records, []string{row.Label, row.Value})
		}
	}
	if rep.Transactions != nil {
		records = append(records, nil, []string{"Date", "Type", "Description", "Amount"})
		for _, row := range rep.Transactions {
			records = append(records, []string{row.Date, row.Type, row.Description, row.Amount})
		}
	}
	if rep.Inventory != nil {
		records = append(records, nil, []string{"Item Name", "Quantity", "Purchase Price", "Selling Price"})
		for _, row := range rep.Inventory {
			records = append(records, []string{row.Name, quantityString(row.Quantity), row.PurchasePrice, row.SellingPrice})
		}
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("render csv report: %w", err)
	}
	return nil
}
