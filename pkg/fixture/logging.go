package fixture

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/fixture", "graph fixtures")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
