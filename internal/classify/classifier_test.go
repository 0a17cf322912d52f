package classify_test

import (
	"testing"

	"radiocorpus/internal/classify"
)

func mustClassifier(t *testing.T, vocab classify.Vocabulary, mode classify.Strictness) *classify.Classifier {
	t.Helper()
	c, err := classify.New(vocab, mode)
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	return c
}

func TestIsConversationalSubstring(t *testing.T) {
	c := mustClassifier(t, classify.DefaultVocabulary(), classify.Substring)
	cases := []struct {
		text string
		want bool
	}{
		{"Copy that, thanks", true},
		{"Well done mate, great job", true},
		{"Thank you guys", true},
		{"Nice one, that was a lovely move on him", true},
		{"Box this lap, P4", false},
		{"Good job, brake balance is fine", false},
		{"Great job, 2 tenths up", false},
		{"Hmm, interesting", false},
		{"Allez, vamos", false},
	}
	for _, tc := range cases {
		if got := c.IsConversational(tc.text); got != tc.want {
			t.Errorf("IsConversational(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestIsConversationalAnchored(t *testing.T) {
	c := mustClassifier(t, classify.DefaultVocabulary(), classify.Anchored)
	cases := []struct {
		text string
		want bool
	}{
		{"Copy that, thanks", true},
		{"Well done mate, great job!", true},
		{"Come on lads", true},
		{"Allez, vamos", true},
		{"Stay calm out there", true},
		{"Nice one, that was a lovely move on him", false},
		{"Yeah we will see how it goes tonight", false},
		{"Box this lap, P4", false},
		{"Good job, brake balance is fine", false},
		{"...", false},
	}
	for _, tc := range cases {
		if got := c.IsConversational(tc.text); got != tc.want {
			t.Errorf("IsConversational(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestClassifyGibberishShortCircuits(t *testing.T) {
	c := classify.Default()
	if got := c.Classify("thanks"); got != classify.RemoveGibberish {
		t.Fatalf("expected gibberish verdict, got %q", got)
	}
	if got := c.Classify("  Copy that, thanks  "); got != classify.RemoveConversational {
		t.Fatalf("expected conversational verdict, got %q", got)
	}
	if got := c.Classify("Box this lap, P4"); got != classify.Keep {
		t.Fatalf("expected keep verdict, got %q", got)
	}
	if classify.Keep.Removed() || !classify.RemoveGibberish.Removed() {
		t.Fatal("unexpected Removed semantics")
	}
}

func TestInjectedVocabulary(t *testing.T) {
	vocab := classify.NewVocabulary([]string{"Tyres"}, []string{"Hello"}, nil)
	c := mustClassifier(t, vocab, classify.Substring)
	if !c.IsConversational("hello there, how are you") {
		t.Fatal("expected injected conversational keyword to match")
	}
	if c.IsConversational("hello, tyres are gone") {
		t.Fatal("expected injected technical keyword to win")
	}
	if c.IsConversational("Copy that, thanks") {
		t.Fatal("default vocabulary must not leak into an injected one")
	}
}

func TestParseStrictness(t *testing.T) {
	for input, want := range map[string]classify.Strictness{
		"":          classify.Substring,
		"substring": classify.Substring,
		" Anchored": classify.Anchored,
	} {
		got, err := classify.ParseStrictness(input)
		if err != nil {
			t.Fatalf("ParseStrictness(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseStrictness(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := classify.ParseStrictness("regex"); err == nil {
		t.Fatal("expected error for unknown strictness")
	}
	if _, err := classify.New(classify.DefaultVocabulary(), classify.Strictness("loose")); err == nil {
		t.Fatal("expected New to reject unknown strictness")
	}
}
