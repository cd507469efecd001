package util

import "testing"

func TestIsValidUsername(t *testing.T) {
	valid := []string{"abc", "Steve", "TheDunkel", "a_b_c", "A234567890123456", "  Steve  "}
	for _, name := range valid {
		if !IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = false, want true", name)
		}
	}

	invalid := []string{"", "ab", "12345678901234567", "bad name", "bad-name", "süße", "steve!"}
	for _, name := range invalid {
		if IsValidUsername(name) {
			t.Errorf("IsValidUsername(%q) = true, want false", name)
		}
	}
}

func TestSanitizeUsername(t *testing.T) {
	cases := map[string]string{
		"Steve":       "Steve",
		"  Steve  ":   "Steve",
		"@Steve":      "Steve",
		"`Steve`":     "Steve",
		" @`Steve` ":  "Steve",
		"@ TheDunkel": "TheDunkel",
	}
	for in, want := range cases {
		if got := SanitizeUsername(in); got != want {
			t.Errorf("SanitizeUsername(%q) = %q, want %q", in, got, want)
		}
	}
}
