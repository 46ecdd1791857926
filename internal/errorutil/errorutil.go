package errorutil

import "errors"

// ErrNoData indicates an input snapshot contained no samples at all. Callers
// must detect it before projecting any geometry since a zero total cannot be
// normalized.
var ErrNoData = errors.New("no valid stack data")
