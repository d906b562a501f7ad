package util

import (
	"fmt"
	"os"
)

var debugEnabled = os.Getenv("SEANCE_DEBUG") != ""

// Debugf writes a diagnostic line to stderr when SEANCE_DEBUG is set.
func Debugf(format string, args ...any) {
	if !debugEnabled {
		return
	}
	fmt.Fprintf(os.Stderr, "seance: debug: "+format+"\n", args...)
}
