package service

import (
	"strings"
	"time"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/domain"
)

// BookView is a book as returned to callers, with its display category resolved.
type BookView struct {
	ID              string    `json:"id" doc:"Book ID (UUIDv4)"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	MLCategory      string    `json:"mlCategory" doc:"Category predicted at creation"`
	UsrCategory     *string   `json:"usrCategory" doc:"User override, null when absent"`
	MLScore         []float64 `json:"mlScore" doc:"Raw model scores aligned to the label set"`
	DisplayCategory string    `json:"displayCategory" doc:"Category the book is shown and filtered under"`
	CategorySource  string    `json:"categorySource" enum:"user,model,unknown" doc:"Where the display category came from"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// newBookView builds the view of b. The display category is recomputed on
// every call and never stored.
func newBookView(labels *category.Set, b *domain.Book) *BookView {
	display, source := labels.ResolveSource(b.UsrCategory, b.MLCategory)
	v := &BookView{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		MLCategory:      b.MLCategory,
		MLScore:         b.Scores(),
		DisplayCategory: display,
		CategorySource:  string(source),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.HasOverride() {
		usr := strings.TrimSpace(b.UsrCategory)
		v.UsrCategory = &usr
	}
	return v
}

func newBookViews(labels *category.Set, books []*domain.Book) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, *newBookView(labels, b))
	}
	return views
}
