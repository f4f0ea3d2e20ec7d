package accumulator

import "github.com/btcsuite/btclog"

// log is the package-level logger every Forest method writes to. It starts
// out disabled; callers that care about forest activity call UseLogger to
// wire in a real backend (see the log package and cmd/forestctl).
var log = btclog.Disabled

// UseLogger sets the logger used by the accumulator package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
