package topics

import "testing"

func TestValidateCountBounds(t *testing.T) {
	if err := Validate([]string{"go"}, 2, 5); err == nil {
		t.Errorf("expected error for too few topics")
	}
	if err := Validate([]string{"go", "rust", "java", "python", "ruby", "c"}, 1, 5); err == nil {
		t.Errorf("expected error for too many topics")
	}
	if err := Validate([]string{"go", "rust"}, 1, 5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFormat(t *testing.T) {
	cases := []struct {
		name    string
		topics  []string
		wantErr bool
	}{
		{"alphanumeric with space ok", []string{"machine learning"}, false},
		{"empty after trim rejected", []string{"   "}, true},
		{"special characters rejected", []string{"go!lang"}, true},
		{"too long rejected", []string{stringOfLen(51)}, true},
		{"exactly 50 chars ok", []string{stringOfLen(50)}, false},
	}

	for _, c := range cases {
		err := Validate(c.topics, 1, 5)
		if c.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", c.name)
		}
		if !c.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
	}
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Machine Learning":   "machine-learning",
		"Go & Concurrency":   "go-concurrency",
		"  trimmed  spaces ": "trimmed-spaces",
		"already-slugged":    "already-slugged",
		"Multiple   Spaces":  "multiple-spaces",
	}

	for input, want := range cases {
		if got := generateSlug(input); got != want {
			t.Errorf("generateSlug(%q) = %q, want %q", input, got, want)
		}
	}
}
