package classify_test

import (
	"strings"
	"testing"

	"radiocorpus/internal/classify"
)

func TestIsGibberish(t *testing.T) {
	cleanSentence := "The rear tyres are fading, so manage the exit of the last corner; keep it tidy, bring it home....!!!"
	symbolHeavy := strings.Repeat("★", 40) + "radio chat"

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace", "    \t\n", true},
		{"too short", "aaa", true},
		{"short after trim", "   box box   ", true},
		{"non ascii heavy", symbolHeavy, true},
		{"cjk hallucination", "ご視聴ありがとうございました ok", true},
		{"low letter ratio", "1 2 3 4 5 6 7 8 9", true},
		{"punctuation soup", "ok?!?! ...!!! ---- ok", true},
		{"clean sentence", cleanSentence, false},
		{"short but valid", "Box this lap", false},
		{"accented speech", "Très bien, on garde le rythme", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify.IsGibberish(tc.text); got != tc.want {
				t.Fatalf("IsGibberish(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestGibberishFixturesHaveDeclaredShape(t *testing.T) {
	clean := "The rear tyres are fading, so manage the exit of the last corner; keep it tidy, bring it home....!!!"
	if n := len([]rune(clean)); n != 100 {
		t.Fatalf("clean fixture has %d runes, want 100", n)
	}
	symbolHeavy := strings.Repeat("★", 40) + "radio chat"
	if n := len([]rune(symbolHeavy)); n != 50 {
		t.Fatalf("symbol fixture has %d runes, want 50", n)
	}
}
