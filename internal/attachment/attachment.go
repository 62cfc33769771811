// Package attachment holds what the proof document backends share.
package attachment

import (
	"errors"
	"path"
	"strings"
)

var ErrNotFound = errors.New("attachment not found")

// Object is a stored proof document.
type Object struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// SafeName reduces an uploaded file name to a single path element of letters,
// digits, dots, dashes and underscores.
func SafeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "/" || base == "." {
		return "proof"
	}

	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, base)

	safe = strings.TrimLeft(safe, ".")
	if safe == "" {
		return "proof"
	}

	return safe
}
