// Package config loads seek's optional YAML configuration file.
//
// Every setting has a command line flag; values from the file become the
// flag defaults, so flags given explicitly always win.
package config

import (
	"fmt"
	"runtime"

	"github.com/praetorian-inc/seek/pkg/decompress"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/searcher"
)

// Config is the contents of a configuration file.
type Config struct {
	// Preprocessor is run with each file path as its only argument and its
	// output is searched instead of the file.
	Preprocessor string `yaml:"preprocessor,omitempty"`

	SearchZip  bool             `yaml:"search_zip"`
	Decompress DecompressConfig `yaml:"decompress,omitempty"`

	IgnoreCase   bool `yaml:"ignore_case"`
	FixedStrings bool `yaml:"fixed_strings"`
	LineNumber   bool `yaml:"line_number"`
	Stats        bool `yaml:"stats"`

	Color  string `yaml:"color"`  // auto, always, never
	Mmap   string `yaml:"mmap"`   // auto, never
	Binary string `yaml:"binary"` // quit, none

	// Threads is the number of parallel searches. 0 means one per CPU.
	Threads int `yaml:"threads"`
}

// DecompressConfig tunes transparent decompression.
type DecompressConfig struct {
	// Disable lists format names (gzip, zstd, ...) to skip rather than decode.
	Disable []string `yaml:"disable,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LineNumber: true,
		Color:      "auto",
		Mmap:       "auto",
		Binary:     "quit",
	}
}

// Validate checks every enumerated value.
func (c *Config) Validate() error {
	if _, err := c.ColorChoice(); err != nil {
		return err
	}
	if _, err := c.SearcherConfig(); err != nil {
		return err
	}
	if _, err := c.Decompression(); err != nil {
		return err
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	return nil
}

// ColorChoice returns the parsed color setting.
func (c *Config) ColorChoice() (printer.ColorChoice, error) {
	return printer.ParseColorChoice(c.Color)
}

// SearcherConfig returns the scanning engine configuration.
func (c *Config) SearcherConfig() (searcher.Config, error) {
	cfg := searcher.DefaultConfig()
	cfg.LineNumber = c.LineNumber

	binary, err := searcher.ParseBinaryDetection(c.Binary)
	if err != nil {
		return cfg, err
	}
	cfg.BinaryDetection = binary

	mmap, err := searcher.ParseMmapChoice(c.Mmap)
	if err != nil {
		return cfg, err
	}
	cfg.Mmap = mmap
	return cfg, nil
}

// Decompression returns a format matcher with the disabled formats removed.
func (c *Config) Decompression() (*decompress.Matcher, error) {
	m := decompress.NewMatcher()
	if err := m.Disable(c.Decompress.Disable...); err != nil {
		return nil, err
	}
	return m, nil
}

// ThreadCount resolves Threads, substituting the CPU count for 0.
func (c *Config) ThreadCount() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}
