package service

import (
	"context"
	"strings"

	"github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	"github.com/reshetovitsme/campus-bot/internal/modules/canteen/repository"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/text/cases"
)

// Matcher decides whether a canteen answers a free-text query.
type Matcher func(query string, canteen domain.Canteen) bool

// Service handles canteen directory lookups
type Service struct {
	repo    repository.Repository
	matcher Matcher
}

type Option func(*Service)

// WithMatcher replaces the default substring matcher.
func WithMatcher(m Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// New creates a new canteen service
func New(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		matcher: SubstringMatcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCanteens returns the directory in upstream order, narrowed by filter if given.
func (s *Service) ListCanteens(ctx context.Context, filter *domain.Filter) ([]domain.Canteen, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListCanteens(ctx, filter)
}

func (s *Service) GetCanteen(ctx context.Context, id string) (domain.Canteen, error) {
	if id == "" {
		return domain.Canteen{}, oops.Wrapf(errors.ErrInvalidArgument, "canteen id must not be empty")
	}
	return s.repo.GetCanteen(ctx, id)
}

// ResolveByName returns the first canteen in directory order that matches query.
// Several canteens may match; the earlier one wins.
func (s *Service) ResolveByName(ctx context.Context, query string) (domain.Canteen, error) {
	if Normalize(query) == "" {
		return domain.Canteen{}, oops.With("query", query).Wrapf(errors.ErrCanteenNotFound, "no canteen matches an empty query")
	}

	canteens, err := s.repo.ListCanteens(ctx, nil)
	if err != nil {
		return domain.Canteen{}, err
	}

	canteen, found := lo.Find(canteens, func(c domain.Canteen) bool {
		return s.matcher(query, c)
	})
	if !found {
		return domain.Canteen{}, oops.With("query", query).Wrapf(errors.ErrCanteenNotFound, "no canteen matching %q", query)
	}
	return canteen, nil
}

// SubstringMatcher matches when the normalized query is contained in the normalized name.
func SubstringMatcher(query string, canteen domain.Canteen) bool {
	q := Normalize(query)
	return q != "" && strings.Contains(Normalize(canteen.Name), q)
}

// ExactMatcher matches only when the normalized query equals the normalized name.
func ExactMatcher(query string, canteen domain.Canteen) bool {
	q := Normalize(query)
	return q != "" && Normalize(canteen.Name) == q
}

var separatorReplacer = strings.NewReplacer(" ", "", "-", "")

// Normalize case folds s and removes spaces, hyphens and the word "mensa".
// Separators go first, so "Men sa" loses its "mensa" as well.
func Normalize(s string) string {
	joined := separatorReplacer.Replace(cases.Fold().String(strings.TrimSpace(s)))
	return strings.ReplaceAll(joined, "mensa", "")
}
