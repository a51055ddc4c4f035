// Package seed loads the sample catalogue into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/abctag/abc-server/internal/domain"
	"github.com/abctag/abc-server/internal/id"
)

// Entry is one sample book with the scores the model produced for it.
type Entry struct {
	Title       string
	Author      string
	Description string
	Category    string
	Scores      []float64
}

// Catalogue is the sample data set. Each entry is stored with its category as
// both the prediction and the user's choice.
var Catalogue = []Entry{
	{
		Title:       "Art of War",
		Author:      "Sun Tzu",
		Description: "Classic military strategy book",
		Category:    "Art",
		Scores:      []float64{0.1, 0.1, -0.3, 0.5, -0.1, 0.5, 0.1, 0.9, 0.2},
	},
	{
		Title:       "Business 101",
		Author:      "John Doe",
		Description: "Basics of business",
		Category:    "Business/Finance",
		Scores:      []float64{0.1, 0.1, 0.3, 0.2, 0.9, 0.2, 0.4, 0.1, 0.2},
	},
	{
		Title:       "The Fantasy Tale",
		Author:      "Jane Smith",
		Description: "Epic fantasy story",
		Category:    "Fantasy/Science Fiction",
		Scores:      []float64{0.2, 0.1, 0.3, -0.2, -0.1, 0.8, -0.1, 0.1, -0.2},
	},
	{
		Title:       "Romantic Stories",
		Author:      "Author X",
		Description: "Love and relationships",
		Category:    "Romance",
		Scores:      []float64{0.7, 0.1, -0.3, 0.2, -0.1, 0.5, 0.1, 0.1, 0.2},
	},
}

// Store is the persistence the seeder needs.
type Store interface {
	InsertBook(ctx context.Context, book *domain.Book) error
	CountBooks(ctx context.Context) (int, error)
}

// Result reports what Run did.
type Result struct {
	Inserted int
	// Existing is the number of books found before seeding.
	Existing int
	Skipped  bool
}

// Run inserts entries unless the store already holds books. force inserts regardless.
func Run(ctx context.Context, st Store, entries []Entry, force bool, logger *slog.Logger) (Result, error) {
	existing, err := st.CountBooks(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count books: %w", err)
	}

	res := Result{Existing: existing}
	if existing > 0 && !force {
		logger.Info("store is not empty, skipping seed", "books", existing)
		res.Skipped = true
		return res, nil
	}

	for _, e := range entries {
		bookID, err := id.Generate()
		if err != nil {
			return res, err
		}
		book := &domain.Book{
			ID:          bookID,
			Title:       e.Title,
			Author:      e.Author,
			Description: e.Description,
			MLCategory:  e.Category,
			UsrCategory: e.Category,
			MLScore:     slices.Clone(e.Scores),
		}
		book.InitTimestamps()

		if err := st.InsertBook(ctx, book); err != nil {
			return res, fmt.Errorf("insert %q: %w", e.Title, err)
		}
		res.Inserted++
		logger.Debug("seeded book", "id", book.ID, "title", book.Title)
	}

	logger.Info("seed complete", "inserted", res.Inserted)
	return res, nil
}
