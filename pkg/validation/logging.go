package validation

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/validation", "graph constraints")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
