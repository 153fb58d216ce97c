package storage

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"

	"ipo-checker/models"
	"ipo-checker/services"
	"ipo-checker/utils"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>IPO allotment results</title>
<style>
:root { --success: #22c55e; --error: #ef4444; }
body { font-family: -apple-system, sans-serif; margin: 24px; color: #222; }
.company-container { margin-bottom: 32px; }
.chart-section { display: flex; align-items: center; gap: 16px; margin: 12px 0; }
.pie-chart { width: 80px; height: 80px; border-radius: 50%; }
.legend-color { display: inline-block; width: 10px; height: 10px; margin-right: 6px; border-radius: 2px; }
.result-card { border: 1px solid #ddd; border-radius: 8px; padding: 8px; margin: 8px 0; overflow-x: auto; }
.empty-state { color: #888; }
</style>
</head>
<body>
<h2>Results <span id="result-count">{{.Count}}</span></h2>
{{if not .Groups}}<div class="empty-state"><p>No results yet</p></div>{{end}}
{{range .Groups}}
<div class="company-container">
  <h4>{{.Company}}</h4>
  <div class="chart-section">
    <div class="pie-chart" style="background: conic-gradient(var(--success) 0% {{.Percent}}%, var(--error) {{.Percent}}% 100%)"></div>
    <div class="chart-legend">
      <div class="legend-item"><span class="legend-color" style="background: var(--success)"></span>Allotted {{.Allotted}} ({{.AllottedRounded}}%)</div>
      <div class="legend-item"><span class="legend-color" style="background: var(--error)"></span>Not Allotted {{.NotAllotted}} ({{.NotAllottedRounded}}%)</div>
    </div>
  </div>
  {{range .Results}}<div class="result-card">{{.}}</div>
  {{end}}
</div>
{{end}}
</body>
</html>
`))

type reportGroup struct {
	Company            string
	Percent            template.CSS
	Allotted           int
	NotAllotted        int
	AllottedRounded    int
	NotAllottedRounded int
	Results            []template.HTML
}

// HTMLReport renders the result set as a static page that embeds each
// stored result markup as it was captured.
type HTMLReport struct {
	path string
}

func NewHTMLReport(path string) *HTMLReport {
	return &HTMLReport{path: path}
}

func (r *HTMLReport) Write(set models.ResultSet) error {
	data := struct {
		Count  int
		Groups []reportGroup
	}{Count: services.Count(set)}

	for _, g := range set {
		t := services.TallyGroup(g)
		pct := t.AllottedPercent()
		rg := reportGroup{
			Company:            g.Company,
			Percent:            template.CSS(fmt.Sprintf("%.2f", pct)),
			Allotted:           t.Allotted,
			NotAllotted:        t.NotAllotted,
			AllottedRounded:    int(math.Round(pct)),
			NotAllottedRounded: int(math.Round(100 - pct)),
		}
		for _, res := range g.Results {
			// the markup comes from the status page itself
			rg.Results = append(rg.Results, template.HTML(res.HTML))
		}
		data.Groups = append(data.Groups, rg)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	if err := reportTemplate.Execute(file, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	utils.Success("Saved report → %s", r.path)
	return nil
}
