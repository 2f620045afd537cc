package config

import "os"

const (
	defaultConfigPath          = "~/.config/ffmpegout/config.toml"
	projectConfigName          = "ffmpegout.toml"
	defaultLogDir              = "~/.local/share/ffmpegout/logs"
	defaultFFmpegBinary        = "ffmpeg"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHandleTableAttempts = 8
	defaultHandleTableSlackKiB = 16
)

var defaultMuxerBinaries = []string{"mkvmerge", "mp4box"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TempDir: os.TempDir(),
			LogDir:  defaultLogDir,
		},
		Encoder: Encoder{
			FFmpegBinary:  defaultFFmpegBinary,
			MuxerBinaries: append([]string(nil), defaultMuxerBinaries...),
		},
		OpenFiles: OpenFiles{
			Enabled:             true,
			HandleTableAttempts: defaultHandleTableAttempts,
			HandleTableSlackKiB: defaultHandleTableSlackKiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
