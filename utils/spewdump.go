package utils

import (
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func Dump(w io.Writer, a ...interface{}) {
	spewConfig.Fdump(w, a...)
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// LogDump logs msg at debug level with a dump of a, skipping the dump when
// debug is disabled.
func LogDump(msg string, a ...interface{}) {
	if e := log.Debug(); e.Enabled() {
		e.Str("dump", spewConfig.Sdump(a...)).Msg(msg)
	}
}
