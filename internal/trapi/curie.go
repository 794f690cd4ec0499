package trapi

import (
	"errors"
	"strings"
)

// Sentinel errors for CURIE parsing.
var (
	ErrCURIEMissingDelimiter = errors.New("invalid curie: missing ':' delimiter")
	ErrCURIEEmptyPrefix      = errors.New("invalid curie: empty prefix")
	ErrCURIEEmptyLocalID     = errors.New("invalid curie: empty local id")
)

// ParseCURIE splits a curie of the form "PREFIX:LOCALID" into its two components.
//
// Unlike a URN, a curie's delimiter is always the first colon; there is no protocol-prefix
// special case and no normalization table, so this does no more than split-and-validate.
func ParseCURIE(curie string) (prefix, localID string, err error) {
	idx := strings.Index(curie, ":")
	if idx == -1 {
		return "", "", ErrCURIEMissingDelimiter
	}

	prefix, localID = curie[:idx], curie[idx+1:]

	if prefix == "" {
		return "", "", ErrCURIEEmptyPrefix
	}

	if localID == "" {
		return "", "", ErrCURIEEmptyLocalID
	}

	return prefix, localID, nil
}

// ValidCURIE reports whether curie parses as a well-formed "PREFIX:LOCALID" identifier.
func ValidCURIE(curie string) bool {
	_, _, err := ParseCURIE(curie)

	return err == nil
}
