package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"radiocorpus/internal/classify"
	"radiocorpus/internal/fileutil"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/services"
)

// FilterStats counts the outcome of a filter pass. Blank lines are not
// counted; Total is Kept + Gibberish + Conversational + Malformed.
type FilterStats struct {
	Total          int
	Kept           int
	Gibberish      int
	Conversational int
	Malformed      int
}

// Removed returns the number of records written to the removed output.
func (s FilterStats) Removed() int { return s.Gibberish + s.Conversational }

// Option configures Filter and Merge.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes malformed-line warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

// Filter streams a corpus from in, writing kept lines unchanged to kept and
// removed records, annotated with removal_reason, to removed.
func Filter(ctx context.Context, in io.Reader, kept, removed io.Writer, c *classify.Classifier, opts ...Option) (FilterStats, error) {
	var stats FilterStats
	if c == nil {
		c = classify.Default()
	}
	o := buildOptions(opts)

	keptBuf := bufio.NewWriter(kept)
	removedBuf := bufio.NewWriter(removed)
	lines := newLineReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line, n, err := lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read corpus: %w", err)
		}
		if isBlank(line) {
			continue
		}
		stats.Total++

		fields, completion, perr := parseLine(line)
		if perr != nil {
			stats.Malformed++
			logging.WarnWithContext(o.logger, "skipping malformed corpus line", "corpus_malformed_line",
				logging.Int("line", n),
				logging.Error(perr),
				logging.String(logging.FieldErrorHint, "each line must be a JSON object with a string completion"),
				logging.String(logging.FieldImpact, "line dropped from both outputs"),
			)
			continue
		}

		verdict := c.Classify(strings.TrimSpace(completion))
		if !verdict.Removed() {
			stats.Kept++
			if err := writeLine(keptBuf, line); err != nil {
				return stats, fmt.Errorf("write kept: %w", err)
			}
			continue
		}

		switch verdict {
		case classify.RemoveGibberish:
			stats.Gibberish++
		case classify.RemoveConversational:
			stats.Conversational++
		}
		fields[ReasonKey] = json.RawMessage(strconv.Quote(string(verdict)))
		encoded, err := encodeJSON(fields)
		if err != nil {
			return stats, fmt.Errorf("encode removed line %d: %w", n, err)
		}
		if _, err := removedBuf.Write(encoded); err != nil {
			return stats, fmt.Errorf("write removed: %w", err)
		}
	}

	if err := keptBuf.Flush(); err != nil {
		return stats, fmt.Errorf("flush kept: %w", err)
	}
	if err := removedBuf.Flush(); err != nil {
		return stats, fmt.Errorf("flush removed: %w", err)
	}
	return stats, nil
}

var errNoCompletion = errors.New("missing string completion")

func parseLine(line []byte) (map[string]json.RawMessage, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, "", err
	}
	if fields == nil {
		return nil, "", errors.New("not a JSON object")
	}
	raw, ok := fields["completion"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, "", errNoCompletion
	}
	var completion string
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, "", errNoCompletion
	}
	return fields, completion, nil
}

func writeLine(w *bufio.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// FilterFile filters inPath into keptPath and removedPath. Outputs are
// replaced only when the pass completes.
func FilterFile(ctx context.Context, inPath, keptPath, removedPath string, c *classify.Classifier, opts ...Option) (FilterStats, error) {
	if err := distinctPaths(inPath, keptPath, removedPath); err != nil {
		return FilterStats{}, err
	}
	in, err := os.Open(inPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FilterStats{}, services.Wrap(services.ErrNotFound, "corpus", "filter", "input corpus missing", err)
		}
		return FilterStats{}, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	kept, err := fileutil.CreateAtomic(keptPath, 0o644)
	if err != nil {
		return FilterStats{}, fmt.Errorf("create kept output: %w", err)
	}
	defer kept.Abort()
	removed, err := fileutil.CreateAtomic(removedPath, 0o644)
	if err != nil {
		return FilterStats{}, fmt.Errorf("create removed output: %w", err)
	}
	defer removed.Abort()

	stats, err := Filter(ctx, in, kept, removed, c, opts...)
	if err != nil {
		return stats, err
	}
	if err := kept.Commit(); err != nil {
		return stats, err
	}
	if err := removed.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// distinctPaths rejects outputs that would overwrite an input or each other.
func distinctPaths(paths ...string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if prev, ok := seen[abs]; ok {
			return services.Wrap(services.ErrValidation, "corpus", "paths", fmt.Sprintf("%s and %s name the same file", prev, p), nil)
		}
		seen[abs] = p
	}
	return nil
}
