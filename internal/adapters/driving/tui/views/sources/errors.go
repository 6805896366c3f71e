package sources

import "errors"

// ErrNoSourceService indicates that no source service was provided.
var ErrNoSourceService = errors.New("source service not available")
