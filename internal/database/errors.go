package database

import (
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"

	"quickopen/internal/indexer"
)

var (
	// ErrNotSynchronized is returned by Search before any index exists.
	ErrNotSynchronized = errors.New("not synchronized")

	ErrNotADirectory   = indexer.ErrNotADirectory
	ErrDuplicateDir    = errors.New("directory already watched")
	ErrUnknownDir      = errors.New("directory not watched")
	ErrBadPattern      = errors.New("malformed ignore pattern")
	ErrDuplicateIgnore = errors.New("pattern already ignored")
	ErrUnknownIgnore   = errors.New("pattern not ignored")
)

// ConfigError reports a rejected directory or ignore pattern change.
type ConfigError struct {
	Op         string
	Value      string
	Suggestion string
	Err        error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Value, e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// suggest returns the closest fuzzy match for value among candidates.
func suggest(value string, candidates []string) string {
	matches := fuzzy.Find(value, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
