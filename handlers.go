package blogboard

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/client"
	"github.com/eringen/blogboard/ui"
	"github.com/eringen/blogboard/views"
)

// MsgCreated is flashed after a blog is created.
const MsgCreated = "Blog created successfully!"

func (w *Web) handleHome(c echo.Context) error {
	st := w.viewState(c)
	if isHTMX(c) {
		switch c.QueryParam("partial") {
		case "list":
			return Render(c, views.List(w.buildPage(c, st, true, false)))
		case "detail":
			return Render(c, views.Detail(w.buildPage(c, st, false, true)))
		}
	}
	page := w.buildPage(c, st, true, true)
	page.Notice = w.popFlash(c)
	return Render(c, views.Page(page))
}

// handleSelect serves both the list's select form and /blog/:id deep links.
func (w *Web) handleSelect(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	st := w.viewState(c)
	st.Select(id)
	st.ShowCreateForm = false
	if err := w.saveViewState(c, st); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (w *Web) handleToggleForm(c echo.Context) error {
	st := w.viewState(c)
	st.ToggleForm()
	if err := w.saveViewState(c, st); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (w *Web) handleCreate(c echo.Context) error {
	st := w.viewState(c)
	form := ui.NewForm(ui.Draft{
		Title:       c.FormValue("title"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
		CoverImage:  c.FormValue("coverImage"),
		Content:     c.FormValue("content"),
	})

	ctx := client.WithForwardedFor(c.Request().Context(), c.RealIP())
	err := form.Submit(ctx, w.Loader, func(p blog.Post) {
		st.ShowCreateForm = false
		w.log.Info().Int64("id", p.ID).Msg("blog created")
	})
	if err != nil {
		w.log.Warn().Err(err).Msg("create blog")
		st.ShowCreateForm = true
		page := ui.Page{
			Title:     w.Config.Name,
			State:     st,
			CSRFToken: CsrfToken(c),
			Form:      form.State(),
		}
		// htmx only swaps 2xx responses, so the fragment goes back as 200.
		if isHTMX(c) {
			return Render(c, views.Form(page))
		}
		return RenderStatus(c, http.StatusUnprocessableEntity, views.Page(page))
	}

	if err := w.saveViewState(c, st); err != nil {
		return err
	}
	if err := w.addFlash(c, MsgCreated); err != nil {
		return err
	}
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (w *Web) handleFeed(c echo.Context) error {
	posts, err := w.Loader.ListBlogs(c.Request().Context())
	if err != nil {
		return err
	}
	return renderRSS(c, w.Config, posts)
}

func (w *Web) handleSitemap(c echo.Context) error {
	posts, err := w.Loader.ListBlogs(c.Request().Context())
	if err != nil {
		return err
	}
	return renderSitemap(c, w.Config, posts)
}

func handleWebHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (w *Web) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(w.Config.Name))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		w.log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, views.ServerError(w.Config.Name))
		return
	}
	w.Echo.DefaultHTTPErrorHandler(err, c)
}
