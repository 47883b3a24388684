package app

import (
	"fmt"

	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/gctl", "graph command line tool")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// SetLogLevel enables the given log level for all graphstore realms.
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logging.DefaultContext().AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("graphstore")))
	return nil
}
