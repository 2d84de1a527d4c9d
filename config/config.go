package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment variable read by Load.
	EnvPrefix = "OCRGRID"

	// EnvMaxFileBytes is the environment variable name for the file size limit.
	EnvMaxFileBytes = EnvPrefix + "_MAX_FILE_BYTES"
	// EnvTesseractLangs lists Tesseract languages joined with '+' (e.g. "eng+deu").
	EnvTesseractLangs = EnvPrefix + "_TESSERACT_LANGS"
	// EnvTesseractPSM selects the Tesseract page segmentation mode.
	EnvTesseractPSM = EnvPrefix + "_TESSERACT_PSM"
	// EnvAnchor is the default anchor phrase searched by find_anchor.
	EnvAnchor = EnvPrefix + "_ANCHOR"
	// EnvScanConfiguration names the default parser configuration.
	EnvScanConfiguration = EnvPrefix + "_SCAN_CONFIGURATION"
	// EnvDebug enables debug logging.
	EnvDebug = EnvPrefix + "_DEBUG"
	// EnvHTTPTimeout bounds remote fetches: a Go duration or whole seconds,
	// at least one second.
	EnvHTTPTimeout = EnvPrefix + "_HTTP_TIMEOUT"

	// DefaultMaxFileBytes is the default maximum accepted file size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20
	// DefaultTesseractLangs is used when no language is configured.
	DefaultTesseractLangs = "eng"
	// DefaultAnchor is the phrase the combination scan looks for.
	DefaultAnchor = "Carat Weight"
	// DefaultScanConfiguration is the parser configuration used when none is given.
	DefaultScanConfiguration = "Raw"
	// DefaultHTTPTimeout bounds remote fetches.
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds runtime configuration sourced from environment variables and an
// optional .env file.
type Config struct {
	MaxFileSizeBytes  int64
	TesseractLangs    string
	TesseractPSM      int
	Anchor            string
	ScanConfiguration string
	Debug             bool
	HTTPTimeout       time.Duration
}

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values. A .env file in the working directory is loaded
// first when present; variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("max_file_bytes", DefaultMaxFileBytes)
	v.SetDefault("tesseract_langs", DefaultTesseractLangs)
	v.SetDefault("tesseract_psm", 0)
	v.SetDefault("anchor", DefaultAnchor)
	v.SetDefault("scan_configuration", DefaultScanConfiguration)
	v.SetDefault("debug", false)
	v.SetDefault("http_timeout", DefaultHTTPTimeout.String())

	cfg := &Config{
		MaxFileSizeBytes:  v.GetInt64("max_file_bytes"),
		TesseractLangs:    strings.TrimSpace(v.GetString("tesseract_langs")),
		TesseractPSM:      v.GetInt("tesseract_psm"),
		Anchor:            v.GetString("anchor"),
		ScanConfiguration: strings.TrimSpace(v.GetString("scan_configuration")),
		Debug:             v.GetBool("debug"),
		HTTPTimeout:       httpTimeout(v.GetString("http_timeout")),
	}

	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = DefaultMaxFileBytes
	}
	if cfg.TesseractLangs == "" {
		cfg.TesseractLangs = DefaultTesseractLangs
	}
	// Valid Tesseract modes are 0-13.
	if cfg.TesseractPSM < 0 || cfg.TesseractPSM > 13 {
		cfg.TesseractPSM = 0
	}
	if cfg.Anchor == "" {
		cfg.Anchor = DefaultAnchor
	}
	if cfg.ScanConfiguration == "" {
		cfg.ScanConfiguration = DefaultScanConfiguration
	}
	if cfg.HTTPTimeout < time.Second {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	return cfg
}

// httpTimeout parses a Go duration ("45s", "2m"). A bare integer counts as
// seconds. Unparseable values yield 0 so Load falls back to the default.
func httpTimeout(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
