package repository

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/reshetovitsme/campus-bot/internal/shared/fetcher"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// APIStorage implements Repository on top of an OpenMensa v2 compatible API
type APIStorage struct {
	baseURL string
	client  JSONGetter
}

func NewAPIStorage(baseURL string, client JSONGetter) Repository {
	return &APIStorage{baseURL: baseURL, client: client}
}

type canteenDTO struct {
	ID          fetcher.LooseID `json:"id"`
	Name        string          `json:"name"`
	City        *string         `json:"city"`
	Address     *string         `json:"address"`
	Coordinates []float64       `json:"coordinates"`
}

func (d canteenDTO) toDomain() (domain.Canteen, error) {
	var opts []domain.Option
	if d.City != nil && *d.City != "" {
		opts = append(opts, domain.WithCity(*d.City))
	}
	if d.Address != nil && *d.Address != "" {
		opts = append(opts, domain.WithAddress(*d.Address))
	}
	switch len(d.Coordinates) {
	case 0:
	case 2:
		opts = append(opts, domain.WithCoordinates(d.Coordinates[0], d.Coordinates[1]))
	default:
		return domain.Canteen{}, oops.With("id", d.ID).Wrapf(errors.ErrUpstreamMalformed, "coordinates must be a [lat, long] pair")
	}

	c, err := domain.NewCanteen(string(d.ID), d.Name, opts...)
	if err != nil {
		return domain.Canteen{}, oops.With("id", d.ID).Wrapf(errors.ErrUpstreamMalformed, "%v", err)
	}
	return c, nil
}

func (s *APIStorage) ListCanteens(ctx context.Context, filter *domain.Filter) ([]domain.Canteen, error) {
	var dtos []canteenDTO
	if err := s.client.GetJSON(ctx, s.baseURL+"/canteens", filterQuery(filter), &dtos); err != nil {
		return nil, oops.With("context", "failed to list canteens").Wrap(err)
	}

	// Order of the upstream listing is kept; broken entries are skipped
	canteens := lo.FilterMap(dtos, func(dto canteenDTO, _ int) (domain.Canteen, bool) {
		c, err := dto.toDomain()
		if err != nil {
			slog.Warn("Skipping malformed canteen", "canteen_id", dto.ID, "error", err)
			return domain.Canteen{}, false
		}
		return c, true
	})
	if len(dtos) > 0 && len(canteens) == 0 {
		return nil, oops.With("skipped", len(dtos)).Wrapf(errors.ErrUpstreamMalformed, "no usable canteen in listing")
	}
	return canteens, nil
}

func (s *APIStorage) GetCanteen(ctx context.Context, id string) (domain.Canteen, error) {
	var dto canteenDTO
	if err := s.client.GetJSON(ctx, s.baseURL+"/canteens/"+url.PathEscape(id), nil, &dto); err != nil {
		if fetcher.IsStatus(err, http.StatusNotFound) {
			return domain.Canteen{}, oops.With("canteen_id", id).Wrapf(errors.ErrNotFound, "canteen not found")
		}
		return domain.Canteen{}, oops.With("canteen_id", id, "context", "failed to get canteen").Wrap(err)
	}
	return dto.toDomain()
}

func filterQuery(filter *domain.Filter) url.Values {
	params := url.Values{}
	if filter == nil {
		return params
	}

	if filter.Near != nil {
		params.Set("near[lat]", formatFloat(filter.Near.Center.Latitude))
		params.Set("near[long]", formatFloat(filter.Near.Center.Longitude))
		params.Set("near[dist]", formatFloat(filter.Near.DistanceKm))
	}
	for _, id := range filter.IDs {
		params.Add("ids", id)
	}
	if filter.HasCoordinates != nil {
		params.Set("hasCoordinates", strconv.FormatBool(*filter.HasCoordinates))
	}
	return params
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
