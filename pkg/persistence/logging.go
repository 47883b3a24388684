package persistence

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/persistence", "graph persistence")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
