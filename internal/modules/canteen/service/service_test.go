package service

import (
	"context"
	"testing"

	"github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	canteens []domain.Canteen
	calls    int
}

func (r *fakeRepository) ListCanteens(_ context.Context, filter *domain.Filter) ([]domain.Canteen, error) {
	r.calls++
	if filter != nil && filter.IDs != nil {
		return lo.Filter(r.canteens, func(c domain.Canteen, _ int) bool {
			return lo.Contains(filter.IDs, c.ID)
		}), nil
	}
	return r.canteens, nil
}

func (r *fakeRepository) GetCanteen(_ context.Context, id string) (domain.Canteen, error) {
	c, ok := lo.Find(r.canteens, func(c domain.Canteen) bool { return c.ID == id })
	if !ok {
		return domain.Canteen{}, errors.ErrNotFound
	}
	return c, nil
}

func canteen(id, name string) domain.Canteen {
	c, _ := domain.NewCanteen(id, name)
	return c
}

func TestResolveByName(t *testing.T) {
	ctx := context.Background()

	svc := New(&fakeRepository{canteens: []domain.Canteen{canteen("1", "Alte Mensa")}})
	c, err := svc.ResolveByName(ctx, "alte")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)

	svc = New(&fakeRepository{canteens: []domain.Canteen{canteen("2", "Neue Mensa")}})
	_, err = svc.ResolveByName(ctx, "alte")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, err, errors.ErrCanteenNotFound)
}

func TestResolveByName_Normalization(t *testing.T) {
	svc := New(&fakeRepository{canteens: []domain.Canteen{
		canteen("4", "Alte Mensa"),
		canteen("9", "Mensa Reichenbachstraße"),
		canteen("12", "Zeltschlösschen"),
	}})

	tests := map[string]string{
		"ALTE":                "4",
		"alte-mensa":          "4",
		"Alte Mensa":          "4",
		"reichenbachstrasse":  "9",
		"Reichenbachstraße":   "9",
		"zeltschlösschen":     "12",
		"  zeltschlösschen  ": "12",
	}
	for query, want := range tests {
		t.Run(query, func(t *testing.T) {
			c, err := svc.ResolveByName(context.Background(), query)
			require.NoError(t, err)
			assert.Equal(t, want, c.ID)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Alte Mensa":               "alte",
		"Men sa Reichenbachstraße": "reichenbachstrasse",
		"MEN-SA Siedepunkt":        "siedepunkt",
		"mensa-mensa":              "",
		"Zeltschlösschen":          "zeltschlösschen",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

// Both canteens match, directory order decides.
func TestResolveByName_FirstMatchWins(t *testing.T) {
	svc := New(&fakeRepository{canteens: []domain.Canteen{
		canteen("29", "Mensa Johannstadt"),
		canteen("30", "Johannstadt Cafeteria"),
	}})

	c, err := svc.ResolveByName(context.Background(), "johannstadt")
	require.NoError(t, err)
	assert.Equal(t, "29", c.ID)
}

func TestResolveByName_EmptyQuery(t *testing.T) {
	repo := &fakeRepository{canteens: []domain.Canteen{canteen("1", "Alte Mensa")}}
	svc := New(repo)

	for _, q := range []string{"", "  ", "mensa", "Mensa", "men sa", "Men-Sa"} {
		_, err := svc.ResolveByName(context.Background(), q)
		assert.ErrorIs(t, err, errors.ErrNotFound, q)
	}
	assert.Zero(t, repo.calls)
}

func TestResolveByName_WithMatcher(t *testing.T) {
	svc := New(&fakeRepository{canteens: []domain.Canteen{
		canteen("29", "Mensa Johannstadt"),
		canteen("30", "Johannstadt Cafeteria"),
	}}, WithMatcher(ExactMatcher))

	c, err := svc.ResolveByName(context.Background(), "johannstadt cafeteria")
	require.NoError(t, err)
	assert.Equal(t, "30", c.ID)

	_, err = svc.ResolveByName(context.Background(), "johann")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestListCanteens_InvalidFilter(t *testing.T) {
	repo := &fakeRepository{}
	svc := New(repo)

	_, err := svc.ListCanteens(context.Background(), &domain.Filter{IDs: []string{}})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = svc.ListCanteens(context.Background(), &domain.Filter{
		Near: &domain.Radius{Center: domain.Coordinates{Latitude: 51, Longitude: 13}, DistanceKm: 75},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Zero(t, repo.calls, "invalid filters must not reach the upstream")
}

func TestGetCanteen(t *testing.T) {
	svc := New(&fakeRepository{canteens: []domain.Canteen{canteen("4", "Alte Mensa")}})

	c, err := svc.GetCanteen(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Alte Mensa", c.Name)

	_, err = svc.GetCanteen(context.Background(), "5")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.NotErrorIs(t, err, errors.ErrCanteenNotFound)

	_, err = svc.GetCanteen(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}
