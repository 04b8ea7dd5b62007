package enums

import "fmt"

// BookCondition grades the physical state of a used-book listing.
type BookCondition string

const (
	BookConditionNew        BookCondition = "new"
	BookConditionLikeNew    BookCondition = "like-new"
	BookConditionVeryGood   BookCondition = "very-good"
	BookConditionGood       BookCondition = "good"
	BookConditionAcceptable BookCondition = "acceptable"
)

var validBookConditions = []BookCondition{
	BookConditionNew,
	BookConditionLikeNew,
	BookConditionVeryGood,
	BookConditionGood,
	BookConditionAcceptable,
}

// String implements fmt.Stringer.
func (c BookCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BookCondition.
func (c BookCondition) IsValid() bool {
	for _, candidate := range validBookConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBookCondition converts raw input into a BookCondition.
func ParseBookCondition(value string) (BookCondition, error) {
	for _, candidate := range validBookConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid book condition %q", value)
}
