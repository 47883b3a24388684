package query

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/query", "graph queries")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
