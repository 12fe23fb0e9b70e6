package plaso

import (
	"errors"
	"regexp"
	"strings"
)

// ErrTokenNotFound is returned when pasted text contains nothing that looks
// like an access token.
var ErrTokenNotFound = errors.New("no access token found in input")

var (
	jsonTokenPattern = regexp.MustCompile(`"access_token":"([^"]+)"`)
	rawTokenPattern  = regexp.MustCompile(`^\d{5}-\d-\d+-[a-f0-9]+-\d+-[^"]+$`)
)

// ExtractToken pulls an access token out of pasted text. It accepts either a
// JSON blob copied from the browser dev tools or the bare token string.
func ExtractToken(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrTokenNotFound
	}

	if match := jsonTokenPattern.FindStringSubmatch(trimmed); match != nil {
		return match[1], nil
	}
	if rawTokenPattern.MatchString(trimmed) {
		return trimmed, nil
	}
	return "", ErrTokenNotFound
}
