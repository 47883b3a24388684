package ordering

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/ordering", "sibling ordering")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
