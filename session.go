package blogboard

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/blogboard/ui"
)

const (
	keySelectedID = "selected_id"
	keyShowForm   = "show_form"
)

func (w *Web) session(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil && sess == nil {
		return nil, err
	}
	if err != nil {
		// Undecodable cookie, e.g. after a secret rotation; start fresh.
		w.log.Debug().Err(err).Msg("discarding session")
	}
	return sess, nil
}

// viewState reads the visitor's UI state. A missing or broken session
// yields the zero state.
func (w *Web) viewState(c echo.Context) ui.ViewState {
	var st ui.ViewState
	sess, err := w.session(c)
	if err != nil {
		return st
	}
	if id, ok := sess.Values[keySelectedID].(int64); ok {
		st.SelectedID = &id
	}
	st.ShowCreateForm, _ = sess.Values[keyShowForm].(bool)
	return st
}

func (w *Web) saveViewState(c echo.Context, st ui.ViewState) error {
	sess, err := w.session(c)
	if err != nil {
		return err
	}
	if st.SelectedID != nil {
		sess.Values[keySelectedID] = *st.SelectedID
	} else {
		delete(sess.Values, keySelectedID)
	}
	sess.Values[keyShowForm] = st.ShowCreateForm
	return sess.Save(c.Request(), c.Response())
}

func (w *Web) addFlash(c echo.Context, msg string) error {
	sess, err := w.session(c)
	if err != nil {
		return err
	}
	sess.AddFlash(msg)
	return sess.Save(c.Request(), c.Response())
}

// popFlash returns and clears the first pending flash message.
func (w *Web) popFlash(c echo.Context) string {
	sess, err := w.session(c)
	if err != nil {
		return ""
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		w.log.Warn().Err(err).Msg("save session")
	}
	msg, _ := flashes[0].(string)
	return msg
}
