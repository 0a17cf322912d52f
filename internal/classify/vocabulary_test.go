package classify_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"radiocorpus/internal/classify"
)

func writeVocabulary(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write vocabulary: %v", err)
	}
	return path
}

func TestNewVocabularyNormalizes(t *testing.T) {
	vocab := classify.NewVocabulary([]string{" Brake ", "brake", "", "DRS"}, nil, nil)
	if got := vocab.Technical(); !slices.Equal(got, []string{"brake", "drs"}) {
		t.Fatalf("unexpected technical list %v", got)
	}
	// Accessors hand out copies.
	list := vocab.Technical()
	list[0] = "mutated"
	if vocab.Technical()[0] != "brake" {
		t.Fatal("vocabulary must be immutable through accessors")
	}
}

func TestLoadVocabularyFileExtendsBase(t *testing.T) {
	path := writeVocabulary(t, "technical:\n  - kerb\nconversational:\n  - legend\n")
	vocab, err := classify.LoadVocabularyFile(path, classify.DefaultVocabulary())
	if err != nil {
		t.Fatalf("LoadVocabularyFile returned error: %v", err)
	}
	if !slices.Contains(vocab.Technical(), "kerb") || !slices.Contains(vocab.Technical(), "brake") {
		t.Fatalf("expected extended technical list, got %d entries", len(vocab.Technical()))
	}
	c, err := classify.New(vocab, classify.Substring)
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	if !c.IsConversational("What a legend you are") {
		t.Fatal("expected extended conversational keyword to match")
	}
	if c.IsConversational("Thanks, watch the kerb") {
		t.Fatal("expected extended technical keyword to keep the message")
	}
}

func TestLoadVocabularyFileReplace(t *testing.T) {
	path := writeVocabulary(t, "replace: true\nconversational: [howdy]\n")
	vocab, err := classify.LoadVocabularyFile(path, classify.DefaultVocabulary())
	if err != nil {
		t.Fatalf("LoadVocabularyFile returned error: %v", err)
	}
	if len(vocab.Technical()) != 0 {
		t.Fatalf("expected replaced technical list to be empty, got %v", vocab.Technical())
	}
	if !slices.Equal(vocab.Conversational(), []string{"howdy"}) {
		t.Fatalf("unexpected conversational list %v", vocab.Conversational())
	}
}

func TestLoadVocabularyFileErrors(t *testing.T) {
	if _, err := classify.LoadVocabularyFile(filepath.Join(t.TempDir(), "missing.yaml"), classify.Vocabulary{}); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := writeVocabulary(t, "technical: [unterminated\n")
	if _, err := classify.LoadVocabularyFile(path, classify.Vocabulary{}); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
