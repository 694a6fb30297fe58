package base

import (
	"github.com/pkg/errors"
)

// Error taxonomy. All of them abort the compilation.
var (
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrRangeViolation       = errors.New("range violation")
	ErrInvalidChannelMap    = errors.New("invalid channel map")
)

func Unsupported(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupportedConstruct, format, args...)
}

func OutOfRange(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRangeViolation, format, args...)
}

func InvalidChannelMap(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidChannelMap, format, args...)
}

// Kind returns the taxonomy error 'err' wraps, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrUnsupportedConstruct, ErrRangeViolation, ErrInvalidChannelMap} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
