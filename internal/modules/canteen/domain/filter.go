package domain

import (
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// MaxRadiusKm is the exclusive upper bound of a radius search.
const MaxRadiusKm = 50

// Radius selects canteens within DistanceKm of Center.
type Radius struct {
	Center     Coordinates
	DistanceKm float64
}

// Filter narrows a directory listing. A nil field does not filter.
type Filter struct {
	Near           *Radius
	IDs            []string
	HasCoordinates *bool
}

func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}

	if f.Near != nil {
		lat, long := f.Near.Center.Latitude, f.Near.Center.Longitude
		if !(-90 < lat && lat < 90 && -180 < long && long < 180) {
			return oops.With("latitude", lat, "longitude", long).Wrapf(errors.ErrInvalidArgument, "coordinates out of range")
		}
		if !(0 < f.Near.DistanceKm && f.Near.DistanceKm < MaxRadiusKm) {
			return oops.With("distance_km", f.Near.DistanceKm).Wrapf(errors.ErrInvalidArgument, "distance out of range")
		}
	}

	if f.IDs != nil {
		if len(f.IDs) == 0 || lo.Contains(f.IDs, "") {
			return oops.With("ids", f.IDs).Wrapf(errors.ErrInvalidArgument, "ids and id must not be empty")
		}
	}

	return nil
}
