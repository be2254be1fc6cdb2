package enrich

import "testing"

func TestToTitleCase(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"the hobbit", "The Hobbit"},
		{"THE LORD OF THE RINGS", "The Lord of the Rings"},
		{"a wrinkle in time", "A Wrinkle in Time"},
		{"the way to the top", "The Way to the Top"},
		// small word in last position is capitalized
		{"what it's made of", "What It's Made Of"},
		// punctuation stays attached
		{"\"charlotte's web\"", "\"Charlotte's Web\""},
		{"danny, the champion of the world", "Danny, the Champion of the World"},
	}
	for _, c := range cases {
		if got := ToTitleCase(c.in); got != c.want {
			t.Errorf("ToTitleCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
