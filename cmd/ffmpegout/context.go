package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ffmpegout/internal/config"
	"ffmpegout/internal/logging"
	"ffmpegout/internal/openfiles"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	sessionID  string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		sessionID:  uuid.NewString(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the session logger. A logger that cannot be opened
// (for example an unwritable log directory) falls back to stderr only.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, _ := c.ensureConfig()
		logger, err := logging.NewFromConfig(cfg, c.sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v; logging to stderr only\n", err)
			logger, _ = logging.New(logging.Options{OutputPaths: []string{"stderr"}, SessionID: c.sessionID})
		}
		c.logger = logger
	})
	return c.logger
}

// rootPID picks the scanned process tree: the --pid flag, then
// open_files.root_pid, then the program that invoked ffmpegout.
func (c *commandContext) rootPID(flag int) (openfiles.PID, error) {
	if flag < 0 {
		return 0, fmt.Errorf("--pid must not be negative, got %d", flag)
	}
	if int64(flag) > math.MaxUint32 {
		return 0, fmt.Errorf("--pid %d exceeds the largest process id", flag)
	}
	if flag > 0 {
		return openfiles.PID(flag), nil
	}
	if cfg, _ := c.ensureConfig(); cfg != nil && cfg.OpenFiles.RootPID > 0 {
		return openfiles.PID(cfg.OpenFiles.RootPID), nil
	}
	return openfiles.PID(os.Getppid()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
