package reconstruct

import (
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// NewLogger returns a logfmt structured logger writing to stdout, the same
// construction used per-component elsewhere in this package (compare the former
// spacecraft.SCLogInit): Process contextualizes it further with
// "component"/"run_id" key-value pairs via kitlog.With.
func NewLogger() kitlog.Logger {
	return kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
}

// NewLoggerTo is NewLogger writing to an arbitrary io.Writer, useful in
// tests that want to assert on log output instead of polluting stdout.
func NewLoggerTo(w io.Writer) kitlog.Logger {
	return kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
}

// NewNopLogger returns a logger that discards everything, the default for
// callers who don't pass one to Process.
func NewNopLogger() kitlog.Logger {
	return kitlog.NewNopLogger()
}
