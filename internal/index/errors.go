package index

import "errors"

// ErrVectorLengthMismatch indicates two vectors have different dimensions.
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// ErrEmptyIndex indicates the persisted metadata table has no entries.
// An empty index must fail at load time rather than serve empty results.
var ErrEmptyIndex = errors.New("index has no entries")
