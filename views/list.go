package views

import (
	"bytes"

	"github.com/a-h/templ"

	"github.com/eringen/blogboard/ui"
)

// List renders only the list fragment.
func List(p ui.Page) templ.Component {
	return component(func(buf *bytes.Buffer) { writeList(buf, p) })
}

func writeList(buf *bytes.Buffer, p ui.Page) {
	l := p.List
	if l.Kind == ui.KindLoading {
		buf.WriteString(`<section id="blog-list" class="list" aria-busy="true" hx-get="/?partial=list" hx-trigger="load delay:500ms" hx-swap="outerHTML">`)
		for i := 0; i < l.Placeholders; i++ {
			buf.WriteString(`<div class="card skeleton"><div class="skeleton-line"></div><div class="skeleton-line short"></div></div>`)
		}
		buf.WriteString("</section>")
		return
	}

	buf.WriteString(`<section id="blog-list" class="list">`)
	switch l.Kind {
	case ui.KindError:
		buf.WriteString(`<div class="alert alert-error" role="alert">Error loading blogs: `)
		text(buf, l.Error)
		buf.WriteString("</div>")
	case ui.KindEmpty:
		buf.WriteString(`<div class="card empty">No blogs found. Create your first blog!</div>`)
	default:
		buf.WriteString(`<h2>All Blogs</h2>`)
		for _, r := range l.Rows {
			writeRow(buf, r, p.CSRFToken)
		}
	}
	buf.WriteString("</section>")
}

func writeRow(buf *bytes.Buffer, r ui.Row, csrf string) {
	buf.WriteString(`<form method="post" action="/select/` + itoa(r.ID) + `"`)
	if r.Selected {
		buf.WriteString(` class="card selected" aria-current="true">`)
	} else {
		buf.WriteString(` class="card">`)
	}
	csrfInput(buf, csrf)
	buf.WriteString(`<button type="submit" class="card-button">`)
	tags(buf, "tags", r.Tags)
	buf.WriteString(`<span class="card-title">`)
	text(buf, r.Title)
	buf.WriteString(`</span><span class="card-description">`)
	text(buf, r.Description)
	buf.WriteString(`</span><span class="card-date">`)
	text(buf, r.Date)
	buf.WriteString("</span></button></form>")
}
