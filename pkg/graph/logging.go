package graph

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/graph", "in-memory labeled graph store")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
