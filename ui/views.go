package ui

import (
	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/query"
)

// PlaceholderRows is how many skeleton rows the list shows while loading.
const PlaceholderRows = 3

// DescriptionLimit caps the list row description.
const DescriptionLimit = 140

// Kind says which of its mutually exclusive renderings a view shows.
type Kind int

const (
	KindNone Kind = iota
	KindLoading
	KindError
	KindEmpty
	KindReady
)

// Row is one summary line of the list.
type Row struct {
	ID          int64
	Tags        []string
	Title       string
	Description string
	Date        string
	Selected    bool
}

// ListState is what the list view renders.
type ListState struct {
	Kind         Kind
	Placeholders int
	Error        string
	Rows         []Row
}

// NewListState derives the list view from the "blogs" result. Selection is
// owned by the caller.
func NewListState(r query.Result, selected *int64) ListState {
	switch r.Status {
	case query.StatusError:
		return ListState{Kind: KindError, Error: errorMessage(r.Err)}
	case query.StatusSuccess:
		posts, _ := query.Data[[]blog.Post](r)
		if len(posts) == 0 {
			return ListState{Kind: KindEmpty}
		}
		rows := make([]Row, 0, len(posts))
		for _, p := range posts {
			rows = append(rows, Row{
				ID:          p.ID,
				Tags:        p.Category,
				Title:       p.Title,
				Description: blog.Truncate(p.Description, DescriptionLimit),
				Date:        blog.FormatDate(p.Date),
				Selected:    selected != nil && *selected == p.ID,
			})
		}
		return ListState{Kind: KindReady, Rows: rows}
	default:
		return ListState{Kind: KindLoading, Placeholders: PlaceholderRows}
	}
}

// DetailPost is the full rendering of one blog.
type DetailPost struct {
	ID          int64
	Title       string
	Tags        []string
	Date        string
	Description string
	CoverImage  string
	Content     string
}

// DetailState is what the detail view renders.
type DetailState struct {
	Kind  Kind
	Error string
	Post  DetailPost
}

// NewDetailState derives the detail view. A nil id means nothing is
// selected and r is ignored.
func NewDetailState(id *int64, r query.Result) DetailState {
	if id == nil {
		return DetailState{Kind: KindNone}
	}
	switch r.Status {
	case query.StatusError:
		return DetailState{Kind: KindError, Error: errorMessage(r.Err)}
	case query.StatusSuccess:
		p, ok := query.Data[blog.Post](r)
		if !ok {
			return DetailState{Kind: KindNone}
		}
		return DetailState{Kind: KindReady, Post: DetailPost{
			ID:          p.ID,
			Title:       p.Title,
			Tags:        p.Category,
			Date:        blog.FormatDate(p.Date),
			Description: p.Description,
			CoverImage:  p.CoverImage,
			Content:     p.Content,
		}}
	default:
		return DetailState{Kind: KindLoading}
	}
}

// ViewState is the per-visitor UI state of the root view.
type ViewState struct {
	SelectedID     *int64
	ShowCreateForm bool
}

// Select marks id as the selected blog.
func (s *ViewState) Select(id int64) {
	s.SelectedID = &id
}

// ToggleForm flips between the creation form and list+detail.
func (s *ViewState) ToggleForm() {
	s.ShowCreateForm = !s.ShowCreateForm
}

// Page is everything the root view renders.
type Page struct {
	Title     string
	State     ViewState
	Notice    string
	CSRFToken string
	List      ListState
	Detail    DetailState
	Form      FormState
}

func errorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}
