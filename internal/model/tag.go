package model

import "strings"

// Tag is a free-form label attached to tasks. Names are stored in canonical
// form and are globally unique. Once created a tag is never mutated or
// deleted; tags with no remaining associations are tolerated.
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// NormalizeTagName converts raw tag text to its canonical form: leading and
// trailing whitespace removed, lowercased. An empty result means the input
// was blank; write paths must reject it, filter paths simply match nothing.
func NormalizeTagName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
