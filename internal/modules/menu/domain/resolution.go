package domain

import (
	"time"

	canteenDomain "github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
)

// Resolution is the outcome of resolving a canteen name and a day token.
type Resolution struct {
	State   ResolutionState       `json:"state"`
	Canteen canteenDomain.Canteen `json:"canteen"`
	// Date is the requested date, after token resolution.
	Date       time.Time `json:"date"`
	DateInPast bool      `json:"date_in_past"`
	Meals      []Meal    `json:"meals,omitempty"`
	// NextOpen is set when the canteen is closed on Date.
	NextOpen *Day `json:"next_open,omitempty"`
}
