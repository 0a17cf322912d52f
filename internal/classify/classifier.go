package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Strictness selects how the conversational check matches vocabulary.
type Strictness string

const (
	// Substring flags a conversational keyword anywhere in the message.
	Substring Strictness = "substring"
	// Anchored requires the whole message to consist of conversational
	// phrases, or to be a short encouragement.
	Anchored Strictness = "anchored"
)

// shortMessageWords is the exclusive word limit for the encouragement rule.
const shortMessageWords = 5

// ParseStrictness validates a configured strictness name. Empty selects
// Substring.
func ParseStrictness(value string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(value))) {
	case "", Substring:
		return Substring, nil
	case Anchored:
		return Anchored, nil
	default:
		return "", fmt.Errorf("unknown classifier strictness %q (want %q or %q)", value, Substring, Anchored)
	}
}

// Verdict is the outcome of classifying one completion.
type Verdict string

const (
	Keep                 Verdict = "keep"
	RemoveGibberish      Verdict = "gibberish"
	RemoveConversational Verdict = "conversational"
)

// Removed reports whether the verdict excludes the record.
func (v Verdict) Removed() bool { return v != Keep && v != "" }

// Classifier applies the gibberish and conversational checks.
type Classifier struct {
	vocab      Vocabulary
	strictness Strictness
	anchored   *regexp.Regexp
}

// New builds a classifier over vocab.
func New(vocab Vocabulary, strictness Strictness) (*Classifier, error) {
	if strictness == "" {
		strictness = Substring
	}
	if _, err := ParseStrictness(string(strictness)); err != nil {
		return nil, err
	}
	c := &Classifier{vocab: vocab, strictness: strictness}
	if strictness == Anchored {
		c.anchored = buildAnchoredPattern(vocab.conversational)
	}
	return c, nil
}

// Default returns a substring classifier over the default vocabulary.
func Default() *Classifier {
	c, _ := New(DefaultVocabulary(), Substring)
	return c
}

// Strictness returns the configured mode.
func (c *Classifier) Strictness() Strictness { return c.strictness }

// Classify runs the gibberish check first; a gibberish verdict short-circuits
// the conversational check.
func (c *Classifier) Classify(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if IsGibberish(trimmed) {
		return RemoveGibberish
	}
	if c.IsConversational(trimmed) {
		return RemoveConversational
	}
	return Keep
}

// IsConversational reports whether text carries no technical or actionable
// content. Digits and technical vocabulary always keep a message.
func (c *Classifier) IsConversational(text string) bool {
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		return false
	}
	lowered := lower(strings.TrimSpace(text))
	if containsAny(lowered, c.vocab.technical) {
		return false
	}
	switch c.strictness {
	case Anchored:
		normalized := normalizePhrase(lowered)
		if normalized == "" {
			return false
		}
		if c.anchored != nil && c.anchored.MatchString(normalized) {
			return true
		}
		words := strings.Fields(normalized)
		return len(words) < shortMessageWords && containsAny(normalized, c.vocab.encouragement)
	default:
		return containsAny(lowered, c.vocab.conversational)
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// normalizePhrase keeps letters, digits and apostrophes, folding every other
// run of characters into a single space.
func normalizePhrase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' || r == '’' {
			if r == '’' {
				r = '\''
			}
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// buildAnchoredPattern matches a string made only of conversational phrases
// separated by single spaces.
func buildAnchoredPattern(phrases []string) *regexp.Regexp {
	alts := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		if p := normalizePhrase(phrase); p != "" {
			alts = append(alts, regexp.QuoteMeta(p))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	group := "(?:" + strings.Join(alts, "|") + ")"
	return regexp.MustCompile("^" + group + "(?: " + group + ")*$")
}
