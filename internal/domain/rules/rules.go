package rules

import "github.com/ivankudzin/orgreviews/internal/domain/model"

const (
	MaxOrganizationNameRunes = 200
	MaxReviewTextRunes       = 4000

	DefaultPageSize = 50
	MaxPageSize     = 200
)

func ValidRating(rating int) bool {
	return rating >= model.MinReviewRating && rating <= model.MaxReviewRating
}

// Page normalizes list paging: a non-positive limit falls back to the
// default, an oversized one is capped and a negative offset becomes zero.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
