package service

import (
	"context"
	"strings"
)

// offlineMarker appears in the maintenance page URL the target redirects to.
const offlineMarker = "offline"

// URLResolver follows redirects and returns the final location.
type URLResolver interface {
	ResolveURL(ctx context.Context, rawURL string) (string, error)
}

// Checker decides whether the target is reachable.
type Checker struct {
	resolver URLResolver
}

func NewChecker(resolver URLResolver) *Checker {
	return &Checker{resolver: resolver}
}

// CheckOnce reports the target as reachable unless the request fails or the
// final location contains "offline".
func (c *Checker) CheckOnce(ctx context.Context, target string) (bool, error) {
	final, err := c.resolver.ResolveURL(ctx, target)
	if err != nil {
		return false, err
	}
	return !strings.Contains(final, offlineMarker), nil
}
