package domain

import (
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/oops"
)

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Canteen represents a university dining facility
type Canteen struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	City        string       `json:"city,omitempty"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Option func(*Canteen) error

// WithCity sets the city. A present city must not be empty.
func WithCity(city string) Option {
	return func(c *Canteen) error {
		if city == "" {
			return oops.With("field", "city").Wrapf(errors.ErrInvalidArgument, "city must not be empty")
		}
		c.City = city
		return nil
	}
}

// WithAddress sets the address. A present address must not be empty.
func WithAddress(address string) Option {
	return func(c *Canteen) error {
		if address == "" {
			return oops.With("field", "address").Wrapf(errors.ErrInvalidArgument, "address must not be empty")
		}
		c.Address = address
		return nil
	}
}

func WithCoordinates(lat, long float64) Option {
	return func(c *Canteen) error {
		c.Coordinates = &Coordinates{Latitude: lat, Longitude: long}
		return nil
	}
}

// NewCanteen builds a canteen; id and name are mandatory.
func NewCanteen(id, name string, opts ...Option) (Canteen, error) {
	if id == "" || name == "" {
		return Canteen{}, oops.With("id", id, "name", name).Wrapf(errors.ErrInvalidArgument, "canteen id and name must not be empty")
	}

	c := Canteen{ID: id, Name: name}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Canteen{}, oops.With("id", id).Wrap(err)
		}
	}
	return c, nil
}

// Equal reports whether both values describe the same canteen. Only the id is compared.
func (c Canteen) Equal(other Canteen) bool {
	return c.ID == other.ID
}

func (c Canteen) HasCoordinates() bool {
	return c.Coordinates != nil
}

func (c Canteen) String() string {
	return c.Name
}
