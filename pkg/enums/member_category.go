package enums

import (
	"fmt"
	"strings"
)

// MemberCategory is the membership tier printed on the card.
type MemberCategory string

const (
	MemberCategoryStandard  MemberCategory = "Standard"
	MemberCategoryPremium   MemberCategory = "Premium"
	MemberCategoryEstudante MemberCategory = "Estudante"
)

var validMemberCategories = []MemberCategory{
	MemberCategoryStandard,
	MemberCategoryPremium,
	MemberCategoryEstudante,
}

// String implements fmt.Stringer.
func (c MemberCategory) String() string {
	return string(c)
}

// IsValid reports whether the value matches a canonical category.
func (c MemberCategory) IsValid() bool {
	for _, candidate := range validMemberCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMemberCategory converts raw input into MemberCategory, ignoring case.
func ParseMemberCategory(value string) (MemberCategory, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validMemberCategories {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member category %q", value)
}

// MemberCategories lists the accepted categories in display order.
func MemberCategories() []MemberCategory {
	out := make([]MemberCategory, len(validMemberCategories))
	copy(out, validMemberCategories)
	return out
}
