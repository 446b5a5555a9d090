package security

import (
	"strings"
	"testing"
)

func TestValidateReportsAllViolationsTogether(t *testing.T) {
	p := DefaultPasswordPolicy()
	v := p.Validate("a")
	if v.Valid {
		t.Fatal("Validate(\"a\") reported valid")
	}
	wantFragments := []string{"at least 8 characters", "uppercase", "number", "special"}
	joined := strings.Join(v.Errors, "; ")
	for _, frag := range wantFragments {
		if !strings.Contains(joined, frag) {
			t.Errorf("violations %q missing %q", joined, frag)
		}
	}
	// "a" satisfies the lowercase criterion, so it must not be reported.
	if strings.Contains(joined, "lowercase") {
		t.Errorf("violations %q wrongly include lowercase", joined)
	}
	if len(v.Errors) != 4 {
		t.Errorf("got %d violations, want 4: %v", len(v.Errors), v.Errors)
	}
}

func TestValidateAccepts(t *testing.T) {
	p := DefaultPasswordPolicy()
	v := p.Validate("Str0ng!pass")
	if !v.Valid || len(v.Errors) != 0 {
		t.Errorf("Validate(compliant) = %+v, want valid with no errors", v)
	}
}

func TestValidateEmptyDoesNotPanic(t *testing.T) {
	p := DefaultPasswordPolicy()
	v := p.Validate("")
	if v.Valid {
		t.Error("empty password reported valid")
	}
	if len(v.Errors) != 5 {
		t.Errorf("empty password: got %d violations, want 5", len(v.Errors))
	}
}

func TestValidateSpecialCharacterSetIsExplicit(t *testing.T) {
	p := DefaultPasswordPolicy()
	// Spaces and control characters are not special characters.
	for _, pw := range []string{"Abcdefg1 ", "Abcdefg1\t", "Abcdefg1\x00"} {
		v := p.Validate(pw)
		if v.Valid {
			t.Errorf("Validate(%q) reported valid; filler rune counted as special", pw)
		}
	}
	for _, pw := range []string{"Abcdefg1!", "Abcdefg1#", "Abcdefg1?"} {
		if v := p.Validate(pw); !v.Valid {
			t.Errorf("Validate(%q) = %v, want valid", pw, v.Errors)
		}
	}
}

func TestStrengthLevels(t *testing.T) {
	p := DefaultPasswordPolicy()
	cases := []struct {
		password string
		level    string
		color    string
	}{
		{"", StrengthWeak, StrengthColorRed},
		{"abc", StrengthWeak, StrengthColorRed},
		{"abc1", StrengthWeak, StrengthColorRed},
		{"Abc1!", StrengthMedium, StrengthColorYellow},
		{"Abcdef1!", StrengthStrong, StrengthColorGreen},
	}
	for _, tc := range cases {
		got := p.Strength(tc.password)
		if got.Level != tc.level || got.Color != tc.color {
			t.Errorf("Strength(%q) = %+v, want %s/%s", tc.password, got, tc.level, tc.color)
		}
	}
}

// Strictly adding a satisfied criterion never decreases the reported level.
func TestStrengthMonotonic(t *testing.T) {
	p := DefaultPasswordPolicy()
	order := map[string]int{StrengthWeak: 0, StrengthMedium: 1, StrengthStrong: 2}
	seq := []string{"abc", "abc1", "Abc1", "Abc1!", "Abcdefg1!"}
	prev := -1
	for _, pw := range seq {
		lvl := order[p.Strength(pw).Level]
		if lvl < prev {
			t.Fatalf("strength decreased at %q", pw)
		}
		prev = lvl
	}
}
