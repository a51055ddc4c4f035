package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/abctag/abc-server/internal/domain"
	"github.com/abctag/abc-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Names must match the db tags on bookRow.
const bookColumns = `id, title, author, mlCategory, usrCategory, description, mlScore, created_at, updated_at`

// updatableColumns maps the fields that may change after creation to their columns.
var updatableColumns = map[store.BookField]string{
	store.FieldUsrCategory: "usrCategory",
}

type bookRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Author      string         `db:"author"`
	MLCategory  sql.NullString `db:"mlCategory"`
	UsrCategory sql.NullString `db:"usrCategory"`
	Description sql.NullString `db:"description"`
	MLScore     sql.NullString `db:"mlScore"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func newBookRow(b *domain.Book) (*bookRow, error) {
	score, err := json.Marshal(b.Scores())
	if err != nil {
		return nil, fmt.Errorf("encode mlScore: %w", err)
	}
	return &bookRow{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		MLCategory:  sql.NullString{String: b.MLCategory, Valid: true},
		UsrCategory: nullString(b.UsrCategory),
		Description: sql.NullString{String: b.Description, Valid: true},
		MLScore:     sql.NullString{String: string(score), Valid: true},
		CreatedAt:   formatTime(b.CreatedAt),
		UpdatedAt:   formatTime(b.UpdatedAt),
	}, nil
}

func (s *Store) toDomain(r *bookRow) (*domain.Book, error) {
	b := &domain.Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		MLCategory:  r.MLCategory.String,
		UsrCategory: r.UsrCategory.String,
		Description: r.Description.String,
		MLScore:     []float64{},
	}

	if raw := strings.TrimSpace(r.MLScore.String); raw != "" {
		if err := json.Unmarshal([]byte(raw), &b.MLScore); err != nil {
			// A bad score column must not hide the record.
			s.logger.Warn("stored mlScore is not a JSON number array", "id", r.ID, "error", err)
			b.MLScore = []float64{}
		}
		if b.MLScore == nil {
			b.MLScore = []float64{}
		}
	}

	var err error
	if b.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at for book %s: %w", r.ID, err)
	}
	if b.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for book %s: %w", r.ID, err)
	}
	return b, nil
}

// InsertBook persists a new book.
func (s *Store) InsertBook(ctx context.Context, b *domain.Book) error {
	if b.ID == "" {
		return store.ErrInvalidInput.WithMessage("book id is required")
	}
	if b.CreatedAt.IsZero() {
		b.InitTimestamps()
	}

	row, err := newBookRow(b)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO books (`+bookColumns+`)
		VALUES (:id, :title, :author, :mlCategory, :usrCategory, :description, :mlScore, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("book %s already exists", b.ID))
		}
		return fmt.Errorf("insert book: %w", err)
	}

	s.index(ctx, b)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var row bookRow
	err := s.db.GetContext(ctx, &row, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage(fmt.Sprintf("book %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return s.toDomain(&row)
}

// QueryBooks returns books matching q in insertion order.
func (s *Store) QueryBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	var (
		where []string
		args  []any
	)

	if title := strings.TrimSpace(q.TitleLike); title != "" {
		where = append(where, `instr(casefold(title), casefold(?)) > 0`)
		args = append(args, title)
	}
	if author := strings.TrimSpace(q.AuthorLike); author != "" {
		where = append(where, `instr(casefold(author), casefold(?)) > 0`)
		args = append(args, author)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		where = append(where, `(casefold(usrCategory) = casefold(?)
			OR casefold(mlCategory) = casefold(?)
			OR casefold(coalesce(mlCategory, '')) = '')`)
		args = append(args, category, category)
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid`

	var rows []bookRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	books := make([]*domain.Book, 0, len(rows))
	for i := range rows {
		b, err := s.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// ListAllBooks returns every book in insertion order.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.QueryBooks(ctx, store.BookQuery{})
}

// UpdateBookField sets a single updatable column. An empty value clears it.
// Concurrent updates are last-write-wins.
func (s *Store) UpdateBookField(ctx context.Context, id string, field store.BookField, value string) error {
	column, ok := updatableColumns[field]
	if !ok {
		return store.ErrInvalidInput.WithMessage(fmt.Sprintf("field %q cannot be updated", field))
	}

	//#nosec G202 -- column comes from the updatableColumns whitelist
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		nullString(value), formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update book %s: %w", field, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book %s: %w", field, err)
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage(fmt.Sprintf("book %s not found", id))
	}

	if b, err := s.GetBook(ctx, id); err == nil {
		s.index(ctx, b)
	}
	return nil
}

// CountBooks returns the number of stored books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// index keeps the search index in step with a write. Failures are logged, not
// returned: the index is derived data and is rebuilt at startup when it drifts.
func (s *Store) index(ctx context.Context, b *domain.Book) {
	if err := s.searchIndexer.IndexBook(ctx, b); err != nil {
		s.logger.Warn("failed to index book", "id", b.ID, "error", err)
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString maps an empty or blank string to NULL.
func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
