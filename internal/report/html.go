package report

import (
	"bytes"
	"fmt"
	"html/template"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4 landscape; margin: 0; }
* { box-sizing: border-box; }
body { margin: 0; font-family: Helvetica, Arial, sans-serif; color: #000; }
.page { width: {{.PageWidth}}mm; padding: 10mm 14mm 14mm 14mm; }
.page + .page { page-break-before: always; }
.letterhead { position: relative; height: 35mm; }
.logo { position: absolute; top: 0; width: 20mm; height: 25mm; font-size: 8pt; }
.logo img { width: 20mm; height: 25mm; object-fit: contain; }
.logo.left { left: 1mm; }
.logo.right { right: 1mm; text-align: right; }
h1 { position: absolute; top: 10mm; left: 0; right: 0; margin: 0; text-align: center;
     font-size: 14pt; font-weight: bold; }
h1 span { border-bottom: 0.3mm solid #000; }
.meta { margin: 0 auto 5mm auto; width: 60mm; font-size: 10pt; }
.meta td { padding: 0 1mm; }
.meta td:first-child { font-weight: bold; width: 20mm; }
table.agenda { border-collapse: collapse; table-layout: fixed; width: {{.TableWidth}}mm; font-size: 8pt; }
table.agenda thead { display: table-header-group; }
table.agenda th, table.agenda td { border: 0.1mm solid #000; padding: 2mm; vertical-align: top; word-wrap: break-word; }
table.agenda th { text-align: center; vertical-align: middle; font-weight: bold; }
table.agenda tr { page-break-inside: avoid; }
.center { text-align: center; }
.signature { margin-top: 10mm; margin-left: 6mm; font-size: 10pt; line-height: 5mm; }
.signature.continued { page-break-before: always; margin-top: 6mm; }
.signature .space { height: 25mm; }
.signature .name { font-weight: bold; text-decoration: underline; }
</style>
</head>
<body>
{{- range .Days}}
<section class="page" data-day="{{.Key}}">
  <div class="letterhead">
    <div class="logo left">{{if $.LeftLogo}}<img src="{{$.LeftLogo}}" alt="">{{else}}{{$.LeftPlaceholder}}{{end}}</div>
    <h1><span>{{$.Title}}</span></h1>
    <div class="logo right">{{if $.RightLogo}}<img src="{{$.RightLogo}}" alt="">{{else}}{{$.RightPlaceholder}}{{end}}</div>
  </div>
  <table class="meta">
    <tr><td>HARI</td><td>: {{.DayName}}</td></tr>
    <tr><td>TANGGAL</td><td>: {{.DateLabel}}</td></tr>
  </table>
  <table class="agenda">
    <colgroup>{{range $.Widths}}<col style="width: {{.}}mm">{{end}}</colgroup>
    <thead><tr>{{range $.Headers}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{- range .Rows}}
      <tr>
        <td class="center">{{.No}}</td>
        <td class="center">{{.Time}}</td>
        <td>{{.Title}}</td>
        <td>{{.Location}}</td>
        <td class="center">{{.DressCode}}</td>
        <td>{{.Referrals}}</td>
        <td class="center">{{.Official}}</td>
        <td class="center">{{.Status}}</td>
        <td>{{.Remarks}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <div class="signature{{if .Layout.SignatureOnNewPage}} continued{{end}}">
    <div>{{$.Signatory.Heading}}</div>
    <div>{{$.Signatory.Position}}</div>
    <div class="space"></div>
    <div class="name">{{$.Signatory.Name}}</div>
    <div>{{$.Signatory.NIP}}</div>
    <div>{{$.Signatory.Rank}}</div>
  </div>
</section>
{{- end}}
</body>
</html>
`))

type pageView struct {
	Title            string
	Days             []Day
	Signatory        Signatory
	LeftLogo         template.URL
	RightLogo        template.URL
	LeftPlaceholder  string
	RightPlaceholder string
	Headers          [9]string
	Widths           [9]float64
	PageWidth        float64
	TableWidth       float64
}

// RenderHTML renders doc as a print-ready HTML page, one section per day.
func RenderHTML(doc *Document) ([]byte, error) {
	if doc == nil || len(doc.Days) == 0 {
		return nil, ErrNoData
	}

	var tableWidth float64
	for _, w := range ColumnWidths {
		tableWidth += w
	}

	v := pageView{
		Title:            doc.Title,
		Days:             doc.Days,
		Signatory:        doc.Signatory,
		LeftLogo:         template.URL(doc.Letter.Left),
		RightLogo:        template.URL(doc.Letter.Right),
		LeftPlaceholder:  LeftPlaceholder,
		RightPlaceholder: RightPlaceholder,
		Headers:          Headers,
		Widths:           ColumnWidths,
		PageWidth:        PageWidth,
		TableWidth:       tableWidth,
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("report: template: %w", err)
	}
	return buf.Bytes(), nil
}
