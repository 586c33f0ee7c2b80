// Package hrlog is the resolver's debug-level logging sink: a thin wrapper
// over the standard log package, matching the bracketed-tag idiom the
// whole example corpus uses (no third-party logger appears anywhere in
// the retrieved repos, see DESIGN.md).
package hrlog

import (
	"io"
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Debug gates whether Debugf actually writes. The resolver itself never
// flips this; it is the embedding application's call, same as the
// teacher's own fmt.Printf trace lines being left in or compiled out by
// hand.
var Debug = true

// Debugf writes a bracketed-tag debug line, e.g.
// Debugf("collapseHeterozygousBulges", "masked %d bulges", n).
func Debugf(tag, format string, args ...interface{}) {
	if !Debug {
		return
	}
	std.Printf("[%s] "+format, append([]interface{}{tag}, args...)...)
}

// SetOutput redirects the logger, e.g. to a file the CLI opened.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}
