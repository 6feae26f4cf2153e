package domain

import "testing"

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Alice", "Alice"},
		{"  Alice  ", "Alice"},
		{"Alice   Smith", "Alice Smith"},
		{"Alice\tSmith", "Alice Smith"},
		{"Álvaro  de la  Cruz", "Álvaro de la Cruz"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
