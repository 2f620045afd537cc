package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var validLogLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateOpenFiles(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoder() error {
	if c.Encoder.FFmpegBinary == "" {
		return errors.New("encoder.ffmpeg_binary must be set")
	}
	return nil
}

func (c *Config) validateOpenFiles() error {
	if c.OpenFiles.RootPID < 0 {
		return errors.New("open_files.root_pid must not be negative")
	}
	if int64(c.OpenFiles.RootPID) > math.MaxUint32 {
		return fmt.Errorf("open_files.root_pid %d exceeds the largest process id", c.OpenFiles.RootPID)
	}
	if c.OpenFiles.HandleTableAttempts <= 0 {
		return errors.New("open_files.handle_table_attempts must be positive")
	}
	if c.OpenFiles.HandleTableSlackKiB < 0 {
		return errors.New("open_files.handle_table_slack_kib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	components := make([]string, 0, len(c.Logging.ComponentLevels))
	for component := range c.Logging.ComponentLevels {
		components = append(components, component)
	}
	sort.Strings(components)
	for _, component := range components {
		if _, ok := validLogLevels[c.Logging.ComponentLevels[component]]; !ok {
			return fmt.Errorf("logging.component_levels.%s: unsupported value %q", component, c.Logging.ComponentLevels[component])
		}
	}
	return nil
}
