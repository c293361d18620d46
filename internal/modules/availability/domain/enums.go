//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// SubscriptionState represents the lifecycle of a subscription
// ENUM(active,retired)
type SubscriptionState string
