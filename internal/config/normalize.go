package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenF1()
	c.normalizeAlignment()
	c.normalizeTranscription()
	if err := c.normalizeClassifier(); err != nil {
		return err
	}
	if err := c.normalizePipeline(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenF1() {
	if value, ok := os.LookupEnv(openF1BaseURLEnv); ok && strings.TrimSpace(value) != "" {
		c.OpenF1.BaseURL = value
	}
	c.OpenF1.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenF1.BaseURL), "/")
	if c.OpenF1.BaseURL == "" {
		c.OpenF1.BaseURL = defaultOpenF1BaseURL
	}
	c.OpenF1.SessionType = strings.TrimSpace(c.OpenF1.SessionType)
	c.OpenF1.Channels = trimList(c.OpenF1.Channels)
}

func (c *Config) normalizeAlignment() {
	c.Alignment.ChannelPriority = trimList(c.Alignment.ChannelPriority)
	if len(c.Alignment.ChannelPriority) == 0 {
		c.Alignment.ChannelPriority = append([]string(nil), defaultChannelPriority...)
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperXModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv(hfTokenEnv); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
}

func (c *Config) normalizeClassifier() error {
	c.Classifier.Strictness = strings.ToLower(strings.TrimSpace(c.Classifier.Strictness))
	if c.Classifier.Strictness == "" {
		c.Classifier.Strictness = defaultClassifierStrictness
	}
	if strings.TrimSpace(c.Classifier.VocabularyFile) == "" {
		c.Classifier.VocabularyFile = ""
		return nil
	}
	var err error
	if c.Classifier.VocabularyFile, err = expandPath(strings.TrimSpace(c.Classifier.VocabularyFile)); err != nil {
		return fmt.Errorf("classifier.vocabulary_file: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() error {
	c.Pipeline.OutputFile = strings.TrimSpace(c.Pipeline.OutputFile)
	if c.Pipeline.OutputFile == "" {
		c.Pipeline.OutputFile = defaultOutputFile
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if strings.TrimSpace(c.Metrics.Textfile) != "" {
		var err error
		if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
