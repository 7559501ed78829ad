package config

import (
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// BuildMode selects how per-page render failures propagate.
type BuildMode string

const (
	// BuildModeStrict aborts the build on the first render failure.
	BuildModeStrict BuildMode = "strict"
	// BuildModeLenient renders every page, then fails listing all failures.
	BuildModeLenient BuildMode = "lenient"
)

var buildModeNormalizer = normalization.NewNormalizer(map[string]BuildMode{
	"strict":  BuildModeStrict,
	"lenient": BuildModeLenient,
}, BuildModeStrict)

// NormalizeBuildMode canonicalizes user input, defaulting to strict.
func NormalizeBuildMode(raw string) BuildMode {
	return buildModeNormalizer.Normalize(raw)
}

// FeedFormat enumerates generated feed flavours.
type FeedFormat string

const (
	FeedRSS  FeedFormat = "rss"
	FeedAtom FeedFormat = "atom"
	FeedJSON FeedFormat = "json"
)

var feedFormatNormalizer = normalization.NewNormalizer(map[string]FeedFormat{
	"rss":  FeedRSS,
	"atom": FeedAtom,
	"json": FeedJSON,
}, FeedRSS)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug": LogLevelDebug,
	"info":  LogLevelInfo,
	"warn":  LogLevelWarn,
	"error": LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}
