// Package apperr holds the fatal error taxonomy shared by the loaders, the
// category configuration and the report engine. Undefined metrics are not
// errors; they travel as nil values.
package apperr

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrConfiguration marks bad client configuration or period bounds.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataShape marks an input table missing required columns.
	ErrDataShape = errors.New("data shape error")
)

func Configuration(format string, args ...any) error {
	return eris.Wrapf(ErrConfiguration, format, args...)
}

// MissingColumns builds a DataShape error naming every absent column.
func MissingColumns(cols []string) error {
	return eris.Wrapf(ErrDataShape, "missing required columns: %s", strings.Join(cols, ", "))
}

func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

func IsDataShape(err error) bool { return errors.Is(err, ErrDataShape) }

// IsClient reports whether err was caused by caller input rather than the
// system, which the HTTP layer maps to 400.
func IsClient(err error) bool { return IsConfiguration(err) || IsDataShape(err) }
