package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

const (
	modulePath        = "github.com/newsreel/cms-backend"
	buildInfoFilename = "build-info.yaml"
	buildInfoPrefix   = "build."
)

type BuildInfoMode int

const (
	BuildInfoNever BuildInfoMode = iota
	BuildInfoOnce
	BuildInfoAlways
)

type LoggerConfig struct {
	LogToFile        bool   `json:"log_to_file" yaml:"log_to_file"`
	Filename         string `json:"filename" yaml:"filename"`
	MaxSize          int    `json:"max_size" yaml:"max_size"`
	MaxAge           int    `json:"max_age" yaml:"max_age"`
	MaxBackups       int    `json:"max_backups" yaml:"max_backups"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
	IncludeSrc       bool   `json:"include_src" yaml:"include_src"`
	CompressOldLogs  bool   `json:"compress_old_logs" yaml:"compress_old_logs"`
	IncludeBuildInfo string `json:"include_build_info" yaml:"include_build_info"` // never, always, once
}

// InitLoggerFromConfig installs the JSON slog logger described by conf as the default logger.
func InitLoggerFromConfig(conf LoggerConfig) {
	slog.SetDefault(NewLogger(conf, os.Stdout))

	if getBuildInfoMode(conf.IncludeBuildInfo) == BuildInfoOnce {
		attrs := loadBuildInfoAsSlogAttrs(buildInfoFilename, buildInfoPrefix)
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		slog.Info("Build info", args...)
	}
}

// NewLogger builds the logger without installing it. Output always goes to stdout; with
// LogToFile it is mirrored into a rotated file.
func NewLogger(conf LoggerConfig, stdout io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     logLevelFromString(conf.LogLevel),
		AddSource: conf.IncludeSrc,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
					source.Function = strings.TrimPrefix(source.Function, modulePath)
				}
			}
			return a
		},
	}

	w := stdout
	if conf.LogToFile && conf.Filename != "" {
		w = io.MultiWriter(stdout, &lumberjack.Logger{
			Filename:   conf.Filename,
			MaxSize:    conf.MaxSize, // megabytes
			MaxAge:     conf.MaxAge,  // days
			MaxBackups: conf.MaxBackups,
			Compress:   conf.CompressOldLogs,
		})
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	if getBuildInfoMode(conf.IncludeBuildInfo) == BuildInfoAlways {
		for _, attr := range loadBuildInfoAsSlogAttrs(buildInfoFilename, buildInfoPrefix) {
			logger = logger.With(attr)
		}
	}
	return logger
}

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getBuildInfoMode(includeBuildInfo string) BuildInfoMode {
	switch includeBuildInfo {
	case "always":
		return BuildInfoAlways
	case "once":
		return BuildInfoOnce
	default:
		return BuildInfoNever
	}
}

// loadBuildInfoAsSlogAttrs reads the key/value build info file written by the image build.
// A missing file yields no attributes.
func loadBuildInfoAsSlogAttrs(filename, prefix string) []slog.Attr {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build info not available: "+err.Error())
		return nil
	}

	buildInfo := make(map[string]string)
	if err := yaml.Unmarshal(data, &buildInfo); err != nil {
		fmt.Fprintln(os.Stderr, "build info not readable: "+err.Error())
		return nil
	}

	attrs := make([]slog.Attr, 0, len(buildInfo))
	for k, v := range buildInfo {
		attrs = append(attrs, slog.String(prefix+k, v))
	}
	return attrs
}
