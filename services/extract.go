package services

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoInput = errors.New("please enter one or more IDs")
	ErrNoIDs   = errors.New("no valid IDs found, please check your input")
)

// idPattern accepts a Groww application number (GROWW + 11 alphanumerics)
// or a depository ID (2 letters + 12 digits). Both must stand as whole
// tokens so longer runs that merely contain one are ignored.
var idPattern = regexp.MustCompile(`\b(?:GROWW[A-Za-z0-9]{11}|[A-Za-z]{2}[0-9]{12})\b`)

// ExtractIDs returns every ID found in text, in order of appearance.
// Duplicates are kept.
func ExtractIDs(text string) []string {
	ids := idPattern.FindAllString(text, -1)
	if ids == nil {
		return []string{}
	}
	return ids
}

// ParseInput trims text and extracts IDs from it, reporting blank input and
// input without any IDs as distinct errors.
func ParseInput(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoInput
	}
	ids := ExtractIDs(text)
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	return ids, nil
}
