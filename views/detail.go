package views

import (
	"bytes"

	"github.com/a-h/templ"

	"github.com/eringen/blogboard/ui"
)

// Detail renders only the detail fragment.
func Detail(p ui.Page) templ.Component {
	return component(func(buf *bytes.Buffer) { writeDetail(buf, p) })
}

func writeDetail(buf *bytes.Buffer, p ui.Page) {
	d := p.Detail
	switch d.Kind {
	case ui.KindLoading:
		buf.WriteString(`<section id="blog-detail" class="detail" aria-busy="true" hx-get="/?partial=detail" hx-trigger="load delay:500ms" hx-swap="outerHTML">`)
		buf.WriteString(`<div class="card skeleton"><div class="skeleton-image"></div><div class="skeleton-line"></div><div class="skeleton-line"></div><div class="skeleton-line short"></div></div>`)
	case ui.KindError:
		buf.WriteString(`<section id="blog-detail" class="detail"><div class="alert alert-error" role="alert">Error loading blog: `)
		text(buf, d.Error)
		buf.WriteString("</div>")
	case ui.KindReady:
		post := d.Post
		buf.WriteString(`<section id="blog-detail" class="detail"><article class="card"><img class="cover"`)
		attr(buf, "src", post.CoverImage)
		attr(buf, "alt", post.Title)
		buf.WriteString(">")
		tags(buf, "tags", post.Tags)
		buf.WriteString("<h2>")
		text(buf, post.Title)
		buf.WriteString(`</h2><p class="card-date">`)
		text(buf, post.Date)
		buf.WriteString(`</p><p class="lead">`)
		text(buf, post.Description)
		buf.WriteString(`</p><div class="content">`)
		text(buf, post.Content)
		buf.WriteString("</div></article>")
	default:
		buf.WriteString(`<section id="blog-detail" class="detail"><div class="card empty">Select a blog to view details</div>`)
	}
	buf.WriteString("</section>")
}
