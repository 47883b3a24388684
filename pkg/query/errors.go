package query

import (
	"github.com/pkg/errors"
)

// ErrUnresolvedPath is reported by Result.Err for traversals
// which did not resolve.
var ErrUnresolvedPath = errors.New("unresolved path")
