package classify

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Vocabulary holds the keyword lists used by the conversational check. The
// zero value matches nothing. Values are immutable once constructed.
type Vocabulary struct {
	technical      []string
	conversational []string
	encouragement  []string
}

// NewVocabulary builds a vocabulary from the given lists. Entries are
// lower-cased, trimmed and deduplicated.
func NewVocabulary(technical, conversational, encouragement []string) Vocabulary {
	return Vocabulary{
		technical:      normalizeTerms(technical),
		conversational: normalizeTerms(conversational),
		encouragement:  normalizeTerms(encouragement),
	}
}

// DefaultVocabulary returns the curated team radio vocabulary.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(defaultTechnical, defaultConversational, defaultEncouragement)
}

// Technical returns a copy of the technical keyword list.
func (v Vocabulary) Technical() []string { return append([]string(nil), v.technical...) }

// Conversational returns a copy of the conversational keyword list.
func (v Vocabulary) Conversational() []string { return append([]string(nil), v.conversational...) }

// Encouragement returns a copy of the encouragement phrase list.
func (v Vocabulary) Encouragement() []string { return append([]string(nil), v.encouragement...) }

// Extend returns a vocabulary holding the union of v and other.
func (v Vocabulary) Extend(other Vocabulary) Vocabulary {
	return NewVocabulary(
		append(v.Technical(), other.technical...),
		append(v.Conversational(), other.conversational...),
		append(v.Encouragement(), other.encouragement...),
	)
}

// vocabularyFile is the YAML layout accepted by LoadVocabularyFile.
type vocabularyFile struct {
	Replace        bool     `yaml:"replace"`
	Technical      []string `yaml:"technical"`
	Conversational []string `yaml:"conversational"`
	Encouragement  []string `yaml:"encouragement"`
}

// LoadVocabularyFile reads a YAML vocabulary. Unless the file sets
// replace: true its lists extend base.
func LoadVocabularyFile(path string, base Vocabulary) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary file: %w", err)
	}
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary file %s: %w", path, err)
	}
	loaded := NewVocabulary(file.Technical, file.Conversational, file.Encouragement)
	if file.Replace {
		return loaded, nil
	}
	return base.Extend(loaded), nil
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(lower(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// lower applies Unicode lower-casing. A Caser is stateful, so one is built
// per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

var defaultTechnical = []string{
	// car systems and setup
	"engine", "strat", "mode", "diff", "energy", "drs", "ers", "battery",
	"charge", "deploy", "harvest", "rpm", "throttle", "steering",
	"suspension", "ride", "height", "wing", "wings", "setting", "settings",
	"switch", "clutch", "gear", "gears", "rev", "revs", "vset", "bias",
	"offset", "bbal", "brake balance", "balance", "downforce",
	"radio", "data", "video", "telemetry", "drink", "visor",
	// tyres and brakes
	"tire", "tyre", "deg", "degradation", "graining", "slicks", "inters",
	"intermediate", "softs", "mediums", "hards", "compound", "temp",
	"temperature", "pressure", "pressures", "brake", "brakes", "braking",
	"brake point", "lock", "lockup", "locking", "break", "cool", "cooling",
	"overheat", "hot", "cold", "warm", "warmup", "warm up",
	// race state and position
	"position", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10",
	"p11", "p12", "p13", "p14", "p15", "p16", "p17", "p18", "p19", "p20",
	"gap", "delta", "lap", "laps", "box", "pit", "stop", "fuel", "pace",
	"sector", "speed", "overtake", "defend", "attack", "target", "margin",
	"window", "fastest", "quickest", "slower", "quicker", "losing",
	"gaining", "behind", "ahead", "catching", "dropping", "closing",
	"purple", "green", "personal", "best", "time", "formation", "grid",
	"procedure", "start", "backing", "flat", "checkered", "check",
	// flags, incidents, conditions
	"debris", "yellow", "flag", "flags", "safety", "vsc", "damage",
	"contact", "incident", "penalty", "stewards", "issues", "issue",
	"problem", "rain", "wet", "dry", "wind", "gusts", "track", "conditions",
	// driving
	"front", "rear", "understeer", "oversteer", "spin", "slide", "grip",
	"traction", "vibration", "lift", "coast", "saving", "manage",
	"managing", "push", "pushing", "lifting", "struggling", "struggle",
	"bouncing", "bounce", "pulling", "car", "exit", "entry", "straight",
	"line", "corner", "turn", "drop", "second", "third", "fourth", "left",
	"right", "side", "sides", "bottom", "sticks", "focus", "clump",
	"clumping", "click", "smooths",
}

var defaultConversational = []string{
	"okay", "ok", "copy", "copied", "roger", "affirm", "affirmative",
	"yes", "yep", "yeah", "no", "nope",
	"thanks", "thank you", "cheers", "appreciate it",
	"good job", "well done", "nice", "great", "excellent", "perfect", "brilliant",
	"sorry", "my bad", "apologies",
	"let's go", "lets go", "come on", "push", "keep going", "stay focused",
	"copy that", "understood", "got it", "all good", "all clear",
	"see you", "talk later", "catch you",
	"nice one", "good work", "keep pushing", "stay calm", "focus",
	"push now", "good stuff", "keep it up", "great job",
	"mate", "guys", "lads", "buddy",
}

var defaultEncouragement = []string{
	"come on", "let's go", "lets go", "keep going", "keep pushing",
	"keep it up", "stay calm", "stay focused", "you can do it", "allez",
	"vamos", "forza",
}
