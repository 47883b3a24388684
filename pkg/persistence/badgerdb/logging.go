package badgerdb

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("graphstore/persistence/badger", "badger persistence")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// logger forwards badger logs to the realm logger.
// Badger info messages are passed as debug messages.
type logger struct{}

var _ badger.Logger = (*logger)(nil)

func msg(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

func (l *logger) Errorf(format string, args ...interface{}) {
	log.Error(msg(format, args...))
}

func (l *logger) Warningf(format string, args ...interface{}) {
	log.Warn(msg(format, args...))
}

func (l *logger) Infof(format string, args ...interface{}) {
	log.Debug(msg(format, args...))
}

func (l *logger) Debugf(format string, args ...interface{}) {
	log.Trace(msg(format, args...))
}
