// Package pattern turns free-text search terms into LIKE patterns.
//
// The target operator has no bracket classes, so only the escape character and
// the two wildcards need escaping.
package pattern

import (
	"errors"
	"strings"
)

// EscapeChar is the escape character used in the LIKE ... ESCAPE clause.
const EscapeChar = "!"

const (
	anyRun  = "%"
	anyChar = "_"
)

// Sentinel kinds for pattern errors.
var (
	ErrNotWrapped   = errors.New("pattern is not wrapped in wildcards")
	ErrBadEscape    = errors.New("dangling or unknown escape sequence")
	ErrBareWildcard = errors.New("unescaped wildcard in pattern payload")
)

// Escape returns a "contains" pattern matching term literally.
// The escape character must be doubled first so the later passes never touch
// the escapes they insert.
func Escape(term string) string {
	s := strings.ReplaceAll(term, EscapeChar, EscapeChar+EscapeChar)
	s = strings.ReplaceAll(s, anyRun, EscapeChar+anyRun)
	s = strings.ReplaceAll(s, anyChar, EscapeChar+anyChar)
	return anyRun + s + anyRun
}

// Unescape reverses Escape, returning the literal term.
func Unescape(p string) (string, error) {
	if len(p) < 2 || !strings.HasPrefix(p, anyRun) || !strings.HasSuffix(p, anyRun) {
		return "", ErrNotWrapped
	}
	payload := p[1 : len(p)-1]

	var b strings.Builder
	b.Grow(len(payload))
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch string(c) {
		case EscapeChar:
			if i+1 >= len(payload) {
				return "", ErrBadEscape
			}
			next := string(payload[i+1])
			if next != EscapeChar && next != anyRun && next != anyChar {
				return "", ErrBadEscape
			}
			b.WriteString(next)
			i++
		case anyRun, anyChar:
			return "", ErrBareWildcard
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
