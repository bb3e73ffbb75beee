package views

import (
	"bytes"

	"github.com/a-h/templ"

	"github.com/eringen/blogboard/ui"
)

// Form renders only the creation form. htmx posts it, disabling the button
// and showing the busy label until the response arrives; without htmx it is
// a plain form post.
func Form(p ui.Page) templ.Component {
	return component(func(buf *bytes.Buffer) { writeForm(buf, p) })
}

func writeForm(buf *bytes.Buffer, p ui.Page) {
	f := p.Form
	d := f.Draft
	buf.WriteString(`<section id="blog-form" class="card form"><h2>Create New Blog</h2>`)
	buf.WriteString(`<form method="post" action="/blogs/new" hx-post="/blogs/new" hx-target="#blog-form" hx-swap="outerHTML" hx-disabled-elt="find button">`)
	csrfInput(buf, p.CSRFToken)

	input(buf, "title", "Title *", "text", d.Title, "")
	input(buf, "category", "Categories (comma-separated) *", "text", d.Category, "TECH, FINANCE")
	buf.WriteString(`<p class="hint">Separate multiple categories with commas</p>`)
	textarea(buf, "description", "Description *", 2, d.Description)
	input(buf, "coverImage", "Cover Image URL *", "url", d.CoverImage, "")
	textarea(buf, "content", "Content *", 8, d.Content)

	if f.Error != "" {
		buf.WriteString(`<div class="alert alert-error" role="alert">`)
		text(buf, f.Error)
		buf.WriteString("</div>")
	}

	if f.Submitting {
		buf.WriteString(`<button type="submit" class="btn" disabled>`)
		text(buf, f.SubmitLabel)
	} else {
		label := f.SubmitLabel
		if label == "" {
			label = ui.LabelSubmit
		}
		buf.WriteString(`<button type="submit" class="btn"><span class="label-idle">`)
		text(buf, label)
		buf.WriteString(`</span><span class="label-busy">`)
		text(buf, ui.LabelSubmitting)
		buf.WriteString("</span>")
	}
	buf.WriteString("</button></form></section>")
}

func input(buf *bytes.Buffer, name, label, typ, value, placeholder string) {
	buf.WriteString(`<label for="` + name + `">`)
	text(buf, label)
	buf.WriteString(`</label><input id="` + name + `" name="` + name + `" type="` + typ + `"`)
	attr(buf, "value", value)
	if placeholder != "" {
		attr(buf, "placeholder", placeholder)
	}
	buf.WriteString(" required>")
}

func textarea(buf *bytes.Buffer, name, label string, rows int, value string) {
	buf.WriteString(`<label for="` + name + `">`)
	text(buf, label)
	buf.WriteString(`</label><textarea id="` + name + `" name="` + name + `" rows="` + itoa(int64(rows)) + `" required>`)
	text(buf, value)
	buf.WriteString("</textarea>")
}
