package model

import "time"

// Product is a sellable item a lead can be interested in.
type Product struct {
	ID          uint64    // products.id
	Name        string    // products.name
	Description string    // products.description
	PriceCents  uint64    // products.price_cents
	CreatedAt   time.Time // products.created_at
}

// Package is a bundle of products sold under one price.
type Package struct {
	ID          uint64    // packages.id
	Name        string    // packages.name
	Description string    // packages.description
	PriceCents  uint64    // packages.price_cents
	CreatedAt   time.Time // packages.created_at
}

// Target is a per-user sales goal for a period (e.g. "2026-08").
type Target struct {
	ID          uint64    // targets.id
	UserID      uint64    // targets.user_id
	Period      string    // targets.period
	TargetCount uint32    // targets.target_count
	CreatedAt   time.Time // targets.created_at
}
