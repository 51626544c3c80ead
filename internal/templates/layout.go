// Package templates renders the HTML pages of the web interface
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// page buffers markup and escapes interpolated text
type page struct {
	strings.Builder
}

func (p *page) raw(s string) {
	p.WriteString(s)
}

func (p *page) text(s string) {
	p.WriteString(templ.EscapeString(s))
}

func (p *page) textf(format string, args ...any) {
	p.text(fmt.Sprintf(format, args...))
}

func component(build func(ctx context.Context, p *page) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		if err := build(ctx, &p); err != nil {
			return err
		}
		_, err := io.WriteString(w, p.String())
		return err
	})
}

// Layout wraps body in the shared page chrome
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var p page
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` | MOT Report</title>`)
		p.raw(`<style>` + stylesheet + `</style></head><body>`)
		p.raw(`<nav><a href="/">MOT Report</a><a href="/history">History</a></nav><main>`)
		if _, err := io.WriteString(w, p.String()); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func searchForm(p *page, value string) {
	p.raw(`<form class="search" action="/vehicles" method="get">`)
	p.raw(`<input type="text" name="reg" placeholder="Registration" required value="`)
	p.text(value)
	p.raw(`"><button type="submit">Look up</button></form>`)
}

const stylesheet = `
body{font-family:Helvetica,Arial,sans-serif;margin:0;color:#222}
nav{background:#222;padding:.8rem 1.5rem}
nav a{color:#fff;margin-right:1.5rem;text-decoration:none}
main{max-width:60rem;margin:2rem auto;padding:0 1rem}
.plate{display:inline-block;background:#f7c31e;border:2px solid #000;border-radius:6px;padding:.3rem 1.2rem;font-size:2rem;font-weight:bold;letter-spacing:.1rem}
.search input{font-size:1.2rem;padding:.4rem;text-transform:uppercase}
.search button{font-size:1.2rem;padding:.4rem 1rem}
dl{display:grid;grid-template-columns:14rem 1fr;gap:.3rem 1rem}
dt{font-weight:bold}
table{border-collapse:collapse;width:100%}
th{background:#808080;color:#fff}
td,th{border:1px solid #999;padding:.3rem .6rem;text-align:center}
td{background:#f5f5dc}
.tone-1{font-weight:bold}
.tone-2{color:#ff4500}
.tone-3{color:#c80000}
.stats{display:flex;gap:2rem}
.stats div{border:1px solid #ccc;padding:1rem;min-width:10rem}
.error{color:#c80000}
`
