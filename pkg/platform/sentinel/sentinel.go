package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and remote clients return
// these (optionally wrapped) so callers can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: attempt or record does not exist in store
// - ErrExpired: attempt state outlived its TTL
// - ErrInvalidState: attempt in wrong phase for requested operation
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
