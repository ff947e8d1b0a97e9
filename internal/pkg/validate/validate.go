package validate

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

// OptionalJSON accepts an absent document or any well formed JSON value.
func OptionalJSON(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Valid(raw)
}
