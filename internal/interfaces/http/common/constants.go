package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies.
	MaxRequestBody = 1 << 20
	// StoreTimeout bounds handlers that only touch the database.
	StoreTimeout = 5 * time.Second
	// LocationTimeout bounds location queries, which may wait on Overpass.
	LocationTimeout = 40 * time.Second
)
