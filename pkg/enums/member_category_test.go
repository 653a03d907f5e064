package enums

import "testing"

func TestParseMemberCategory(t *testing.T) {
	cases := map[string]MemberCategory{
		"Standard":  MemberCategoryStandard,
		"standard":  MemberCategoryStandard,
		" PREMIUM ": MemberCategoryPremium,
		"estudante": MemberCategoryEstudante,
	}
	for raw, want := range cases {
		got, err := ParseMemberCategory(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s got %s", raw, want, got)
		}
	}

	if _, err := ParseMemberCategory("gold"); err == nil {
		t.Fatal("expected unknown category to fail")
	}
	if _, err := ParseMemberCategory(""); err == nil {
		t.Fatal("expected empty category to fail")
	}
}

func TestMemberCategoryIsValid(t *testing.T) {
	if !MemberCategoryPremium.IsValid() {
		t.Fatal("premium should be valid")
	}
	if MemberCategory("premium").IsValid() {
		t.Fatal("non-canonical casing should not be valid")
	}
}
