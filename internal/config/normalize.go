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
	c.normalizeEncoder()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = os.TempDir()
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if value, ok := os.LookupEnv("FFMPEG_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Encoder.FFmpegBinary = strings.TrimSpace(value)
	}
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}

	muxers := make([]string, 0, len(c.Encoder.MuxerBinaries))
	seen := make(map[string]struct{}, len(c.Encoder.MuxerBinaries))
	for _, name := range c.Encoder.MuxerBinaries {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		muxers = append(muxers, trimmed)
	}
	c.Encoder.MuxerBinaries = muxers
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.ComponentLevels) == 0 {
		return
	}
	levels := make(map[string]string, len(c.Logging.ComponentLevels))
	for component, level := range c.Logging.ComponentLevels {
		component = strings.ToLower(strings.TrimSpace(component))
		if component == "" {
			continue
		}
		levels[component] = strings.ToLower(strings.TrimSpace(level))
	}
	c.Logging.ComponentLevels = levels
}
