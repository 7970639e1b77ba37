package service

import (
	"unicode/utf8"

	"github.com/jchyng/todo-list/internal/utils"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// sanitizeTodoInput strips markup, trims, and enforces the field length
// limits. The returned error enumerates every failing field so clients
// can fix them in one round trip.
func sanitizeTodoInput(title, desc string) (string, string, error) {
	var fields []string

	title = utils.StripHTML(title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		fields = append(fields, "title is required")
	case n > maxTitleLen:
		fields = append(fields, "title must be at most 200 characters")
	}

	desc = utils.StripHTML(desc)
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		fields = append(fields, "description must be at most 1000 characters")
	}

	if len(fields) > 0 {
		return "", "", &ValidationError{Fields: fields}
	}
	return title, desc, nil
}
