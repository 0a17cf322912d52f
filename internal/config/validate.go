package config

import (
	"errors"
	"fmt"
	"strings"

	"radiocorpus/internal/classify"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOpenF1(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOpenF1() error {
	if !strings.HasPrefix(c.OpenF1.BaseURL, "http://") && !strings.HasPrefix(c.OpenF1.BaseURL, "https://") {
		return fmt.Errorf("openf1.base_url must be an http(s) URL, got %q", c.OpenF1.BaseURL)
	}
	if c.OpenF1.TimeoutSeconds <= 0 {
		return errors.New("openf1.timeout_seconds must be positive")
	}
	if len(c.OpenF1.Years) == 0 {
		return errors.New("openf1.years must list at least one season")
	}
	for _, year := range c.OpenF1.Years {
		if year < 2018 || year > 2100 {
			return fmt.Errorf("openf1.years contains implausible season %d", year)
		}
	}
	if c.OpenF1.MaxSessions < 0 {
		return errors.New("openf1.max_sessions must not be negative")
	}
	if c.OpenF1.MaxDriversPerSession < 0 {
		return errors.New("openf1.max_drivers_per_session must not be negative")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.WindowSeconds <= 0 {
		return errors.New("alignment.window_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if _, err := classify.ParseStrictness(c.Classifier.Strictness); err != nil {
		return fmt.Errorf("classifier.strictness: %w", err)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > maxWorkers {
		return fmt.Errorf("pipeline.workers must be between 1 and %d", maxWorkers)
	}
	return nil
}
