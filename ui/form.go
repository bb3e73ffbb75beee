package ui

import (
	"context"
	"time"

	"github.com/eringen/blogboard/blog"
	"github.com/eringen/blogboard/query"
)

// Submit button labels.
const (
	LabelSubmit     = "Create Blog"
	LabelSubmitting = "Creating..."
)

// Draft holds the unsaved values of the creation form.
type Draft struct {
	Title       string
	Category    string
	Description string
	CoverImage  string
	Content     string
}

// Request builds the POST /blogs payload, splitting the category input and
// stamping the given time.
func (d Draft) Request(now time.Time) blog.CreateRequest {
	return blog.CreateRequest{
		Title:       d.Title,
		Category:    blog.ParseCategories(d.Category),
		Description: d.Description,
		CoverImage:  d.CoverImage,
		Content:     d.Content,
		Date:        now.UTC(),
	}
}

// FormState is what the form view renders.
type FormState struct {
	Draft       Draft
	Submitting  bool
	Error       string
	SubmitLabel string
}

// Form is one creation form. Each Submit walks
// idle -> submitting -> idle, clearing the draft on success and keeping it
// on failure.
type Form struct {
	Draft    Draft
	Now      func() time.Time
	mutation query.Mutation
}

// NewForm creates a form holding d.
func NewForm(d Draft) *Form {
	return &Form{Draft: d, Now: time.Now}
}

// Submit creates the blog. On success the draft is cleared, "blogs" is
// invalidated and done runs, in that order. On failure the draft is kept
// and the error is returned and shown by State.
func (f *Form) Submit(ctx context.Context, l *Loader, done func(blog.Post)) error {
	req := f.Draft.Request(f.Now())
	_, err := f.mutation.Mutate(ctx, func(ctx context.Context) (any, error) {
		return l.API.CreateBlog(ctx, req)
	}, func(v any) {
		f.Draft = Draft{}
		l.Queries.Invalidate(BlogsKey)
		if done != nil {
			p, _ := v.(blog.Post)
			done(p)
		}
	})
	return err
}

// Status reports the underlying mutation state.
func (f *Form) Status() query.MutationStatus {
	return f.mutation.Status()
}

// State returns the view of the form.
func (f *Form) State() FormState {
	st := FormState{Draft: f.Draft, SubmitLabel: LabelSubmit}
	switch f.mutation.Status() {
	case query.MutationPending:
		st.Submitting = true
		st.SubmitLabel = LabelSubmitting
	case query.MutationError:
		st.Error = errorMessage(f.mutation.Err())
	}
	return st
}
