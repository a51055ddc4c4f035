package service

import (
	"context"

	"github.com/abctag/abc-server/internal/category"
	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/scores"
	"github.com/abctag/abc-server/internal/store"
)

// CategoryCount is the number of books displayed under a category.
type CategoryCount struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CategoryStats counts books by display category, one entry per label in order,
// followed by an Unknown entry collecting every display category outside the set.
func (s *BookService) CategoryStats(ctx context.Context) ([]CategoryCount, error) {
	books, err := s.store.QueryBooks(ctx, store.BookQuery{})
	if err != nil {
		return nil, storeError(err, "count categories", "")
	}

	labels := s.labels.Labels()
	counts := make([]CategoryCount, len(labels)+1)
	for i, label := range labels {
		counts[i] = CategoryCount{Label: label, Slug: category.Slugify(label)}
	}
	other := &counts[len(labels)]
	*other = CategoryCount{Label: category.Unknown, Slug: category.Slugify(category.Unknown)}

	for _, b := range books {
		if i, ok := s.labels.Index(s.labels.Resolve(b.UsrCategory, b.MLCategory)); ok {
			counts[i].Count++
		} else {
			other.Count++
		}
	}
	return counts, nil
}

// BookScoresView is a book's score vector paired with the label set.
type BookScoresView struct {
	BookID    string              `json:"bookId"`
	Transform scores.Transform    `json:"transform"`
	Aligned   bool                `json:"aligned" doc:"False when the vector length differs from the label count"`
	Scores    []scores.LabelScore `json:"scores"`
}

// BookScores returns the labelled score vector of a book after applying transform.
func (s *BookService) BookScores(ctx context.Context, id string, transform string) (*BookScoresView, error) {
	t, err := scores.ParseTransform(transform)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid transform",
			map[string]string{"transform": "must be one of: raw clamp log"})
	}

	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, storeError(err, "get book", id)
	}

	pairs, aligned := scores.Labelled(s.labels.Labels(), scores.Apply(t, book.Scores()))
	return &BookScoresView{
		BookID:    book.ID,
		Transform: t,
		Aligned:   aligned,
		Scores:    pairs,
	}, nil
}
