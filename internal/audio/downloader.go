package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"radiocorpus/internal/fileutil"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/services"
	"radiocorpus/internal/telemetry"
	"radiocorpus/internal/textutil"
)

const (
	defaultExtension = "mp3"
	defaultTimeout   = 60 * time.Second
)

// ErrEmptyPayload is returned when a recording downloads as zero bytes.
var ErrEmptyPayload = errors.New("audio: empty payload")

// Downloader fetches recordings over HTTP.
type Downloader struct {
	dir    string
	http   *http.Client
	logger *slog.Logger
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.http = client
		}
	}
}

// WithLogger sets the downloader logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) { d.logger = logger }
}

// NewDownloader writes recordings into dir.
func NewDownloader(dir string, opts ...Option) *Downloader {
	d := &Downloader{dir: dir, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "audio")
	return d
}

// Dir returns the work directory.
func (d *Downloader) Dir() string { return d.dir }

// Download stores the recording of ev and returns its path.
func (d *Downloader) Download(ctx context.Context, ev telemetry.RadioEvent) (string, error) {
	if strings.TrimSpace(ev.RecordingURL) == "" {
		return "", services.Wrap(services.ErrValidation, "audio", "download", "recording url missing", nil)
	}
	dest := filepath.Join(d.dir, FileName(ev))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		d.logger.Debug("reusing downloaded recording", logging.String("path", dest))
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ev.RecordingURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "audio", "download", "build request", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "audio", "download", ev.RecordingURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", services.Wrap(services.ErrTransient, "audio", "download", fmt.Sprintf("%s: %s", ev.RecordingURL, resp.Status), nil)
	}

	size, digest, err := fileutil.WriteAtomic(dest, resp.Body, 0o644)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "audio", "download", "write "+dest, err)
	}
	if size == 0 {
		_ = os.Remove(dest)
		return "", services.Wrap(services.ErrValidation, "audio", "download", ev.RecordingURL, ErrEmptyPayload)
	}
	d.logger.Debug("recording downloaded",
		logging.String("path", dest),
		logging.Int("bytes", int(size)),
		logging.String("sha256", digest),
	)
	return dest, nil
}

// FileName returns the local name for the recording of ev. Unparseable dates
// fall back to a digest of the raw value. The trailing tag is derived from the
// recording URL, so two messages in the same second map to different files.
func FileName(ev telemetry.RadioEvent) string {
	stamp, err := telemetry.FileStamp(ev.Date)
	if err != nil {
		stamp = digest(ev.Date, 12)
	}
	return fmt.Sprintf("radio_%d_%d_%s_%s.%s", ev.SessionKey, ev.DriverNumber, stamp, digest(ev.RecordingURL, 8), extension(ev.RecordingURL))
}

func digest(value string, n int) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])[:n]
}

func extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return textutil.SanitizeToken(ext, defaultExtension)
}

// Cleanup removes a transient recording. A missing file is not an error.
func Cleanup(p string) error {
	if p == "" {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
