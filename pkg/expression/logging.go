package expression

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/expression", "expression parsing and evaluation")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
