package transaction

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/transaction", "transactional graph mutations")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
