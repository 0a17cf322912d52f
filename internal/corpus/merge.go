package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"radiocorpus/internal/fileutil"
	"radiocorpus/internal/services"
)

// Source is one corpus to merge.
type Source struct {
	Name   string
	Reader io.Reader
}

// SourceCount is the number of records taken from one source.
type SourceCount struct {
	Name    string
	Records int
}

// MergeStats reports per-source and combined record counts.
type MergeStats struct {
	Sources []SourceCount
	Total   int
}

// Merge writes every non-blank line of each source to out, sources in order.
func Merge(ctx context.Context, out io.Writer, sources ...Source) (MergeStats, error) {
	var stats MergeStats
	w := bufio.NewWriter(out)
	for _, src := range sources {
		count := SourceCount{Name: src.Name}
		lines := newLineReader(src.Reader)
		for {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			line, _, err := lines.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return stats, fmt.Errorf("read %s: %w", src.Name, err)
			}
			if isBlank(line) {
				continue
			}
			if err := writeLine(w, line); err != nil {
				return stats, fmt.Errorf("write merged: %w", err)
			}
			count.Records++
		}
		stats.Sources = append(stats.Sources, count)
		stats.Total += count.Records
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush merged: %w", err)
	}
	return stats, nil
}

// MergeFiles merges inputs into outPath. Every input must exist before the
// output is touched.
func MergeFiles(ctx context.Context, outPath string, inputs ...string) (MergeStats, error) {
	if len(inputs) == 0 {
		return MergeStats{}, services.Wrap(services.ErrValidation, "corpus", "merge", "no input corpora", nil)
	}
	if err := distinctPaths(append([]string{outPath}, inputs...)...); err != nil {
		return MergeStats{}, err
	}

	sources := make([]Source, 0, len(inputs))
	for _, path := range inputs {
		f, err := os.Open(path)
		if err != nil {
			closeSources(sources)
			if errors.Is(err, os.ErrNotExist) {
				return MergeStats{}, services.Wrap(services.ErrNotFound, "corpus", "merge", "input corpus missing: "+path, err)
			}
			return MergeStats{}, fmt.Errorf("open %s: %w", path, err)
		}
		sources = append(sources, Source{Name: path, Reader: f})
	}
	defer closeSources(sources)

	out, err := fileutil.CreateAtomic(outPath, 0o644)
	if err != nil {
		return MergeStats{}, fmt.Errorf("create merged output: %w", err)
	}
	defer out.Abort()

	stats, err := Merge(ctx, out, sources...)
	if err != nil {
		return stats, err
	}
	if err := out.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

func closeSources(sources []Source) {
	for _, src := range sources {
		if c, ok := src.Reader.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
