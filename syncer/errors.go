// Package syncer coordinates every mutating commerce operation: remote
// attempt first, deterministic local merge on failure, write-through always.
package syncer

import "errors"

// ErrValidation marks user-facing input rejections. It is the only failure a
// cart or wishlist operation ever surfaces; everything else is recovered
// locally.
var ErrValidation = errors.New("validation failed")
