package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/lookup"
	"github.com/abctag/abc-server/internal/metrics"
)

// DescriptionLookup fetches a description for a title and author.
type DescriptionLookup interface {
	Description(ctx context.Context, title, author string) (*lookup.Result, error)
}

// LookupService finds descriptions for books being entered.
type LookupService struct {
	client  DescriptionLookup
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewLookupService creates a new lookup service.
func NewLookupService(client DescriptionLookup, metrics *metrics.Metrics, logger *slog.Logger) *LookupService {
	return &LookupService{client: client, metrics: metrics, logger: logger}
}

// Describe looks up a description. A missing volume is a successful, not-found result;
// upstream failures are reported as unavailable.
func (s *LookupService) Describe(ctx context.Context, title, author string) (*lookup.Result, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	if title == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"})
	}

	res, err := s.client.Description(ctx, title, author)
	if err != nil {
		s.metrics.DescriptionLookedUp("error")
		s.logger.Warn("description lookup failed", "title", title, "author", author, "error", err)
		if errors.Is(err, lookup.ErrRateLimited) {
			return nil, domainerrors.RateLimited("description lookup is rate limited, try again later")
		}
		return nil, domainerrors.Unavailable("description lookup is unavailable").WithCause(err)
	}

	if res.Found {
		s.metrics.DescriptionLookedUp("found")
	} else {
		s.metrics.DescriptionLookedUp("not_found")
	}
	return res, nil
}
