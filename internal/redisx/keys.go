package redisx

import "time"

const (
	// Product list cache: catalog:products -> JSON array of products
	KeyCatalogProducts = "catalog:products"

	// Dedup of consumed checkout events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCatalog = 5 * time.Minute
	TTLDedup   = 48 * time.Hour
)
