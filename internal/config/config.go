package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/nao1215/pngcipher/internal/deflate"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// Default configuration values.
const (
	// DefaultKeyBits is the size of generated keys.
	DefaultKeyBits = 2048

	// DefaultMode is the block chaining mode. ECB is the only mode that
	// runs on several workers.
	DefaultMode = rsa.ModeECB

	// DefaultCompressionLevel is the zlib default level.
	DefaultCompressionLevel = 6

	// DefaultProgressThreshold is the minimum progress advance between
	// deliveries, half a percentage point.
	DefaultProgressThreshold = rsa.DefaultProgressThreshold

	// DefaultBatchSize is the number of files processed at once.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "pngcipher"
)

// Config holds all configuration options for pngcipher.
// It is populated from CLI flags and the config file and passed through the
// application rather than kept in global state.
type Config struct {
	// KeyBits is the modulus size of generated keys. It must be a multiple
	// of 16 and at least rsa.MinKeyBits.
	KeyBits int

	// Mode selects ECB or CBC chaining.
	Mode rsa.Mode

	// Workers bounds the ECB worker pool.
	Workers int

	// CompressionLevel is the zlib level of rewritten image data, from
	// deflate.DefaultCompression (-1) to deflate.BestCompression (9).
	CompressionLevel int

	// ProgressThreshold is the minimum progress advance between deliveries,
	// in [0, 1].
	ProgressThreshold float64

	// Strip makes encrypt and decrypt drop every chunk anonymize would drop.
	Strip bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// BatchSize is the number of files processed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, .pngcipher is searched in the current and home directories.
	ConfigFilePath string

	// Profile names the config file profile to apply.
	Profile string

	// JSONReport selects JSON inspection output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown inspection output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for inspection reports. When empty
	// the report goes to stdout.
	ReportFile string

	// Inputs is the list of images to process.
	Inputs []string

	// Output is the output path for a single input, or the output directory
	// when several inputs are given.
	Output string

	// DBDir is the directory holding the key store database.
	// Defaults to XDG data directory (~/.local/share/pngcipher on Linux).
	DBDir string

	// NoJournal disables recording operations in the database.
	NoJournal bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		KeyBits:           DefaultKeyBits,
		Mode:              DefaultMode,
		Workers:           runtime.NumCPU(),
		CompressionLevel:  DefaultCompressionLevel,
		ProgressThreshold: DefaultProgressThreshold,
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for pngcipher.
// On Linux: ~/.local/share/pngcipher
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pngcipher.
// On Linux: ~/.config/pngcipher
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyProfile overrides the fields that p sets.
func (c *Config) ApplyProfile(p Profile) {
	if p.KeyBits != 0 {
		c.KeyBits = p.KeyBits
	}
	if p.Mode != "" {
		c.Mode = rsa.Mode(p.Mode)
	}
	if p.Workers != 0 {
		c.Workers = p.Workers
	}
	if p.CompressionLevel != nil {
		c.CompressionLevel = *p.CompressionLevel
	}
	if p.Strip != nil {
		c.Strip = *p.Strip
	}
}

// ValidateCipher checks the settings used by encrypt and decrypt.
func (c *Config) ValidateCipher() error {
	if c.KeyBits < rsa.MinKeyBits || c.KeyBits%16 != 0 {
		return ErrInvalidKeyBits
	}
	if c.Mode != rsa.ModeECB && c.Mode != rsa.ModeCBC {
		return ErrInvalidMode
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.CompressionLevel < deflate.DefaultCompression || c.CompressionLevel > deflate.BestCompression {
		return ErrInvalidCompressionLevel
	}
	if c.ProgressThreshold < 0 || c.ProgressThreshold > 1 {
		return ErrInvalidProgressThreshold
	}
	return nil
}

// Validate checks if the configuration is valid and returns the first
// violated rule.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return c.ValidateCipher()
}
