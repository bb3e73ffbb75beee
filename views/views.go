// Package views renders the blog frontend as templ components.
package views

import (
	"bytes"
	"context"
	"embed"
	"io"
	"io/fs"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/blogboard/ui"
)

//go:embed static/*
var staticFS embed.FS

// Static holds the stylesheet served under /public/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func component(render func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		render(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func text(buf *bytes.Buffer, s string) {
	buf.WriteString(templ.EscapeString(s))
}

func attr(buf *bytes.Buffer, name, value string) {
	buf.WriteString(" ")
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(templ.EscapeString(value))
	buf.WriteString(`"`)
}

func csrfInput(buf *bytes.Buffer, token string) {
	buf.WriteString(`<input type="hidden" name="_csrf"`)
	attr(buf, "value", token)
	buf.WriteString(">")
}

func tags(buf *bytes.Buffer, class string, vals []string) {
	buf.WriteString(`<span class="` + class + `">`)
	for _, t := range vals {
		buf.WriteString(`<span class="badge">`)
		text(buf, t)
		buf.WriteString("</span>")
	}
	buf.WriteString("</span>")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// Page renders the full root view.
func Page(p ui.Page) templ.Component {
	return component(func(buf *bytes.Buffer) {
		buf.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		text(buf, p.Title)
		buf.WriteString(`</title><link rel="stylesheet" href="/public/style.css">`)
		buf.WriteString(`<link rel="alternate" type="application/rss+xml"`)
		attr(buf, "title", p.Title)
		buf.WriteString(` href="/feed.xml">`)
		buf.WriteString(`<script src="https://unpkg.com/htmx.org@1.9.12" defer></script></head><body>`)
		writeHeader(buf, p)
		if p.Notice != "" {
			buf.WriteString(`<div class="alert alert-success" role="status">`)
			text(buf, p.Notice)
			buf.WriteString("</div>")
		}
		buf.WriteString(`<main class="container">`)
		if p.State.ShowCreateForm {
			writeForm(buf, p)
		} else {
			buf.WriteString(`<div class="grid">`)
			writeList(buf, p)
			writeDetail(buf, p)
			buf.WriteString("</div>")
		}
		buf.WriteString("</main></body></html>")
	})
}

func writeHeader(buf *bytes.Buffer, p ui.Page) {
	buf.WriteString(`<header class="header"><h1>`)
	text(buf, p.Title)
	buf.WriteString(`</h1><form method="post" action="/toggle-form">`)
	csrfInput(buf, p.CSRFToken)
	buf.WriteString(`<button type="submit" class="btn">`)
	if p.State.ShowCreateForm {
		buf.WriteString("Cancel")
	} else {
		buf.WriteString("Create New Blog")
	}
	buf.WriteString("</button></form></header>")
}

// NotFound renders the 404 page.
func NotFound(siteName string) templ.Component {
	return errorPage(siteName, "Not found", `<div class="card empty"><h1>404</h1><p>That page does not exist.</p>`)
}

// ServerError renders the 500 page.
func ServerError(siteName string) templ.Component {
	return errorPage(siteName, "Error", `<div class="alert alert-error" role="alert"><h1>Something went wrong</h1><p>Please try again.</p>`)
}

func errorPage(siteName, title, body string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		buf.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>`)
		text(buf, title+" | "+siteName)
		buf.WriteString(`</title><link rel="stylesheet" href="/public/style.css"></head><body><main class="container">`)
		buf.WriteString(body)
		buf.WriteString(`<a href="/">Back to `)
		text(buf, siteName)
		buf.WriteString("</a></div></main></body></html>")
	})
}
