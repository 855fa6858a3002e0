package loader

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every error caused by malformed input data.
var ErrFormat = errors.New("invalid data format")

var (
	errMissingHeader = errors.New("missing header")
	errBadHeader     = errors.New("unexpected header")
	errBadCode       = errors.New("airport code must look like [XXX]")
	errMissingName   = errors.New("missing name")
	errMissingState  = errors.New("missing state")
	errBadCoordinate = errors.New("coordinate is not a finite number")
	errShortLine     = fmt.Errorf("line shorter than %d bytes", cityLineLen)
)

// FormatError reports a malformed line of a data file.
type FormatError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Err, e.Text)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}
