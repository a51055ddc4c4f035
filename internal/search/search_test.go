package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abctag/abc-server/internal/domain"
)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	index, err := NewSearchIndex(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func book(id, title, author, description string) *domain.Book {
	b := &domain.Book{ID: id, Title: title, Author: author, Description: description, MLCategory: "Art"}
	b.InitTimestamps()
	return b
}

func seed(t *testing.T, index *SearchIndex) {
	t.Helper()
	require.NoError(t, index.IndexBooks(context.Background(), []*domain.Book{
		book("b1", "Art of War", "Sun Tzu", "Ancient treatise on strategy"),
		book("b2", "Business 101", "John Doe", "Introduction to running a company"),
		book("b3", "The Fantasy Tale", "Jane Smith", "Dragons and wizards"),
		book("b4", "Romantic Stories", "Author X", "Love across the ages"),
	}))
}

func TestNewSearchIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewSearchIndex_OnDisk(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(context.Background(), book("b1", "Dune", "Frank Herbert", "")))
	require.NoError(t, index.Close())

	index, err = NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_RequiresPath(t *testing.T) {
	_, err := NewSearchIndex(Options{})
	assert.Error(t, err)
}

func TestIndexBook_ReplacesExisting(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	b := book("b1", "Art of War", "Sun Tzu", "")
	require.NoError(t, index.IndexBook(ctx, b))
	b.UsrCategory = "History"
	require.NoError(t, index.IndexBook(ctx, b))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearch(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	tests := []struct {
		name  string
		query string
		first string
	}{
		{name: "title word", query: "war", first: "b1"},
		{name: "multiple words", query: "romance stories", first: "b4"},
		{name: "author", query: "smith", first: "b3"},
		{name: "description", query: "dragons", first: "b3"},
		{name: "typo", query: "fantasi", first: "b3"},
		{name: "prefix", query: "busi", first: "b2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := index.Search(context.Background(), Params{Query: tt.query})
			require.NoError(t, err)
			require.NotEmpty(t, res.Hits)
			assert.Equal(t, tt.first, res.Hits[0].ID)
		})
	}
}

func TestSearch_NoMatch(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Params{Query: "xylophone"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Zero(t, res.Total)
}

func TestSearch_EmptyQueryMatchesAllWithLimit(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Params{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), res.Total)
	assert.Len(t, res.IDs(), 2)
}

func TestSearch_Facets(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	res, err := index.Search(context.Background(), Params{Facets: true})
	require.NoError(t, err)
	require.Len(t, res.Facets, 1)
	assert.Equal(t, FacetCount{Value: "art", Count: 4}, res.Facets[0])
}

type fakeLister struct {
	books []*domain.Book
}

func (f *fakeLister) ListAllBooks(context.Context) ([]*domain.Book, error) { return f.books, nil }
func (f *fakeLister) CountBooks(context.Context) (int, error)              { return len(f.books), nil }

func TestReindex(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	src := &fakeLister{books: []*domain.Book{
		book("b1", "Art of War", "Sun Tzu", ""),
		book("b2", "Business 101", "John Doe", ""),
	}}

	rebuilt, err := index.Reindex(ctx, src, false)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	rebuilt, err = index.Reindex(ctx, src, false)
	require.NoError(t, err)
	assert.False(t, rebuilt, "counts match, nothing to do")

	rebuilt, err = index.Reindex(ctx, src, true)
	require.NoError(t, err)
	assert.True(t, rebuilt)
}

// insertingLister stores and indexes one more book right after taking the
// listing snapshot, the way a create racing the reindex would.
type insertingLister struct {
	fakeLister
	index *SearchIndex
	late  *domain.Book
}

func (l *insertingLister) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	snapshot := append([]*domain.Book(nil), l.books...)
	if l.late != nil {
		l.books = append(l.books, l.late)
		if err := l.index.IndexBook(ctx, l.late); err != nil {
			return nil, err
		}
		l.late = nil
	}
	return snapshot, nil
}

func TestReindex_KeepsBookWrittenDuringRebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	src := &insertingLister{
		fakeLister: fakeLister{books: []*domain.Book{
			book("b1", "Art of War", "Sun Tzu", ""),
		}},
		index: index,
		late:  book("b2", "Business 101", "John Doe", ""),
	}

	rebuilt, err := index.Reindex(ctx, src, true)
	require.NoError(t, err)
	require.True(t, rebuilt)

	res, err := index.Search(ctx, Params{Query: "business"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, res.IDs())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestBookToDocument(t *testing.T) {
	b := book("b1", "Art of War", "Sun Tzu", "desc")
	b.MLCategory = " History "
	b.UsrCategory = "Thriller"

	doc := BookToDocument(b)
	assert.Equal(t, "history", doc.MLCategory)
	assert.Equal(t, "thriller", doc.UsrCategory)

	m := doc.ToMap()
	assert.Equal(t, "Art of War", m["title"])
	assert.Equal(t, "desc", m["description"])

	empty := BookToDocument(&domain.Book{ID: "b2"}).ToMap()
	assert.NotContains(t, empty, "ml_category")
	assert.NotContains(t, empty, "description")
}
