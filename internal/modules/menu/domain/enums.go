//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// ResolutionState is the terminal state of a canteen/day lookup
// ENUM(meals_fetched,redirected_to_next_open_day)
type ResolutionState string
