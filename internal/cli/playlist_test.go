package cli

import (
	"strings"
	"testing"
)

func TestParseQuotes(t *testing.T) {
	input := `
# favorites
I'll be back.

  May the Force be with you.
# skipped comment
Here's Johnny!
`
	quotes, err := parseQuotes(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseQuotes failed: %v", err)
	}

	want := []string{
		"I'll be back.",
		"May the Force be with you.",
		"Here's Johnny!",
	}
	if len(quotes) != len(want) {
		t.Fatalf("got %d quotes, want %d", len(quotes), len(want))
	}
	for i, q := range want {
		if quotes[i] != q {
			t.Errorf("quote %d = %q, want %q", i, quotes[i], q)
		}
	}
}

func TestParseQuotesEmptyInput(t *testing.T) {
	quotes, err := parseQuotes(strings.NewReader("\n# only a comment\n\n"))
	if err != nil {
		t.Fatalf("parseQuotes failed: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("got %d quotes, want 0", len(quotes))
	}
}

func TestParseQuotesFileMissing(t *testing.T) {
	if _, err := parseQuotesFile("/nonexistent/quotes.txt"); err == nil {
		t.Error("expected error for missing quotes file")
	}
}
