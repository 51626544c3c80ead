package templates

import (
	"context"
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"github.com/jjenkins/motreport/internal/model"
	"github.com/jjenkins/motreport/internal/report"
)

const timestampLayout = "02/01/2006 15:04"

// Home renders the search page. stats is nil when no lookup log is configured.
func Home(stats *model.LookupStats) templ.Component {
	body := component(func(ctx context.Context, p *page) error {
		p.raw(`<h1>Vehicle MOT report</h1>`)
		p.raw(`<p>Enter a registration to see its reconciled record, test history and a downloadable PDF report.</p>`)
		searchForm(p, "")

		if stats == nil {
			return nil
		}
		p.raw(`<h2>Lookups</h2><div class="stats">`)
		p.raw(`<div><strong>Total lookups</strong><br>`)
		p.textf("%d", stats.TotalLookups)
		p.raw(`</div><div><strong>Distinct vehicles</strong><br>`)
		p.textf("%d", stats.DistinctVehicles)
		p.raw(`</div><div><strong>Average pass rate</strong><br>`)
		p.textf("%.0f%%", stats.AveragePassRate)
		p.raw(`</div>`)
		if stats.LastLookupAt.Valid {
			p.raw(`<div><strong>Last lookup</strong><br>`)
			p.text(stats.LastLookupAt.Time.Format(timestampLayout))
			p.raw(`</div>`)
		}
		p.raw(`</div>`)
		return nil
	})
	return Layout("Home", body)
}

// Vehicle renders the reconciled record using the same content as the PDF report
func Vehicle(doc *report.Document) templ.Component {
	body := component(func(ctx context.Context, p *page) error {
		p.raw(`<p><span class="plate">`)
		p.text(doc.Registration)
		p.raw(`</span></p>`)

		reportURL := "/vehicles/" + url.PathEscape(doc.Registration) + "/report.pdf"
		p.raw(`<p><a href="`)
		p.text(reportURL)
		p.raw(`">Download PDF report</a> | <a href="/api/vehicles/`)
		p.text(url.PathEscape(doc.Registration))
		p.raw(`">JSON</a></p>`)

		section(p, doc.Identification)
		section(p, doc.Condition)

		if doc.History == nil {
			for _, line := range doc.Notice {
				p.raw(fmt.Sprintf(`<p class="tone-%d">`, line.Tone))
				p.text(line.Value)
				p.raw(`</p>`)
			}
			return nil
		}

		section(p, doc.History.Information)

		p.raw(`<h2>`)
		p.textf("Recurring faults (%d)", len(doc.History.RecurringFaults))
		p.raw(`</h2><ul>`)
		for _, fault := range doc.History.RecurringFaults {
			p.raw(fmt.Sprintf(`<li class="tone-%d">`, fault.Tone))
			p.text(fault.Label + ": " + fault.Value)
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)

		p.raw(`<h2>MOT History</h2><table><thead><tr>`)
		p.raw(`<th>Date</th><th>Mileage</th><th>Comments</th><th>Result</th></tr></thead><tbody>`)
		for _, row := range doc.History.Rows {
			p.raw(`<tr>`)
			for _, cell := range row {
				p.raw(`<td>`)
				p.text(cell)
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table>`)
		return nil
	})
	return Layout(doc.Registration, body)
}

func section(p *page, s report.Section) {
	p.raw(`<h2>`)
	p.text(s.Title)
	p.raw(`</h2><dl>`)
	for _, line := range s.Lines {
		p.raw(`<dt>`)
		p.text(line.Label)
		p.raw(`</dt><dd>`)
		p.text(line.Value)
		p.raw(`</dd>`)
	}
	p.raw(`</dl>`)
}

// History lists recorded lookups, newest first
func History(lookups []model.LookupSummary) templ.Component {
	body := component(func(ctx context.Context, p *page) error {
		p.raw(`<h1>Lookup history</h1>`)
		if len(lookups) == 0 {
			p.raw(`<p>No lookups recorded yet.</p>`)
			return nil
		}

		p.raw(`<table><thead><tr><th>Registration</th><th>Vehicle</th><th>Tests</th>`)
		p.raw(`<th>Pass rate</th><th>Average mileage</th><th>Looked up</th></tr></thead><tbody>`)
		for _, l := range lookups {
			p.raw(`<tr><td><a href="/vehicles/`)
			p.text(url.PathEscape(l.Registration))
			p.raw(`">`)
			p.text(l.Registration)
			p.raw(`</a></td><td>`)
			p.text(l.Make + " " + l.Model)
			p.raw(`</td><td>`)
			p.textf("%d", l.TestCount)
			p.raw(`</td><td>`)
			if l.PassRate.Valid {
				p.textf("%d%%", l.PassRate.Int64)
			} else {
				p.text(model.Unavailable)
			}
			p.raw(`</td><td>`)
			if l.AverageMileage.Valid {
				p.textf("%.0f", l.AverageMileage.Float64)
			} else {
				p.text(model.Unavailable)
			}
			p.raw(`</td><td>`)
			p.text(l.LookedUpAt.Format(timestampLayout))
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
		return nil
	})
	return Layout("History", body)
}

// Error renders a failed request. registration refills the search box.
func Error(status int, message, registration string) templ.Component {
	body := component(func(ctx context.Context, p *page) error {
		p.raw(`<h1>`)
		p.textf("%d", status)
		p.raw(`</h1><p class="error">`)
		p.text(message)
		p.raw(`</p>`)
		searchForm(p, registration)
		return nil
	})
	return Layout("Error", body)
}
