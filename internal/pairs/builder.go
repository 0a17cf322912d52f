// Package pairs turns aligned telemetry aggregates and radio transcripts into
// (prompt, completion) training pairs.
package pairs

import (
	"fmt"
	"sort"
	"strings"

	"radiocorpus/internal/align"
)

// DefaultPriority orders channels in the prompt. Channels not listed follow
// in lexical order.
var DefaultPriority = []string{"speed", "rpm", "throttle", "brake", "n_gear", "drs"}

const noMetrics = "No metrics available"

// TrainingPair is one supervised fine-tuning record.
type TrainingPair struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Builder formats prompts with a fixed channel order so output is
// deterministic across runs.
type Builder struct {
	priority []string
}

// NewBuilder returns a builder using priority, or DefaultPriority when empty.
func NewBuilder(priority []string) *Builder {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	cp := make([]string, 0, len(priority))
	for _, name := range priority {
		if name = strings.TrimSpace(name); name != "" {
			cp = append(cp, name)
		}
	}
	return &Builder{priority: cp}
}

// ShortName strips the aggregation role prefix from an aggregate key.
func ShortName(key string) string {
	return strings.TrimPrefix(key, align.MeanPrefix)
}

// Prompt encodes an aggregate as "Telemetry: <channels>. Advice:".
func (b *Builder) Prompt(agg align.Aggregate) string {
	parts := make([]string, 0, len(agg.Means))
	for _, key := range b.orderedKeys(agg.Means) {
		parts = append(parts, fmt.Sprintf("%s %.1f", ShortName(key), agg.Means[key]))
	}
	joined := noMetrics
	if len(parts) > 0 {
		joined = strings.Join(parts, ", ")
	}
	return "Telemetry: " + joined + ". Advice:"
}

func (b *Builder) orderedKeys(means map[string]float64) []string {
	keys := make([]string, 0, len(means))
	seen := make(map[string]struct{}, len(means))
	for _, name := range b.priority {
		key := align.MeanPrefix + name
		if _, ok := means[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	var rest []string
	for key := range means {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Build emits a pair only when the event aligned and the transcript has
// content after trimming.
func (b *Builder) Build(agg align.Aggregate, aligned bool, transcript string) (TrainingPair, bool) {
	if !aligned {
		return TrainingPair{}, false
	}
	completion := strings.TrimSpace(transcript)
	if completion == "" {
		return TrainingPair{}, false
	}
	return TrainingPair{Prompt: b.Prompt(agg), Completion: completion}, true
}
