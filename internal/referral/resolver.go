// Package referral resolves the two-level referral chain for a trader
// from the external registry.
package referral

import (
	"context"
	"fmt"

	"referral-attribution/internal/chain"
)

// Resolution is the outcome of resolving a trader's referral chain.
// When Registered is false, or Parent is empty, the event must be dropped
// by the caller with no writes of any kind.
type Resolution struct {
	Registered  bool
	Parent      string
	Grandparent string
}

// Resolver looks up referral chains. The hierarchy is exactly two levels
// deep plus a platform catch-all; no deeper ancestry is modeled.
type Resolver struct {
	registry chain.Registry
}

// NewResolver creates a Resolver backed by the given registry.
func NewResolver(registry chain.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the trader's referral chain.
//
// Fails closed: an unregistered trader yields Registered=false. A
// registered trader with a zero parent yields an empty Parent — the
// registry guarantees every registered user a parent, so absence is an
// inconsistency the caller must treat as a drop, not a valid state.
// A zero grandparent is substituted with the platform account.
func (r *Resolver) Resolve(ctx context.Context, trader string) (Resolution, error) {
	registered, err := r.registry.IsRegistered(ctx, trader)
	if err != nil {
		return Resolution{}, fmt.Errorf("check registration of %s: %w", trader, err)
	}
	if !registered {
		return Resolution{}, nil
	}

	parent, err := r.registry.ParentOf(ctx, trader)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve parent of %s: %w", trader, err)
	}
	if parent == chain.ZeroAddress || parent == "" {
		return Resolution{Registered: true}, nil
	}

	grandparent, err := r.registry.ParentOf(ctx, parent)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve grandparent of %s: %w", trader, err)
	}
	if grandparent == chain.ZeroAddress || grandparent == "" {
		grandparent, err = r.registry.PlatformAccount(ctx)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve platform account: %w", err)
		}
	}

	return Resolution{
		Registered:  true,
		Parent:      parent,
		Grandparent: grandparent,
	}, nil
}
