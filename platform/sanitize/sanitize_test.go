package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>coach</b> &amp; trainer", "coach & trainer"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;hi", "alert(1)hi"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextKeepsNewlinesDropsControls(t *testing.T) {
	got := Text("\ufeffline one\x00\nline\ttwo")
	if got != "line one\nline two" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestLineCollapsesWhitespace(t *testing.T) {
	if got := Line(" Jo \n  Smith\t"); got != "Jo Smith" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"José":         "jose",
		"CRÈME Brûlée": "creme brulee",
		"coach.jo":     "coach.jo",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
