package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Global configuration structure.
type Global struct {
	// Loading
	Delimiter        string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	DropZeroColumns  bool   `mapstructure:"drop_zero_columns" yaml:"drop_zero_columns"`

	// Output
	PreviewRows    int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	SampleRows     int    `mapstructure:"sample_rows" yaml:"sample_rows"`
	HistogramBins  int    `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	ExportFilename string `mapstructure:"export_filename" yaml:"export_filename"`
	ChartWidth     int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight    int    `mapstructure:"chart_height" yaml:"chart_height"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP shell
	ServerAddr   string `mapstructure:"server_addr" yaml:"server_addr"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	CacheEntries int    `mapstructure:"cache_entries" yaml:"cache_entries"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"delimiter", "decimal_separator", "drop_zero_columns",
	"preview_rows", "sample_rows", "histogram_bins", "export_filename",
	"chart_width", "chart_height",
	"log_level", "log_format",
	"server_addr", "max_upload_mb", "cache_entries",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("drop_zero_columns", false)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("histogram_bins", 10)
	v.SetDefault("export_filename", "filtered_data.csv")
	v.SetDefault("chart_width", 1000)
	v.SetDefault("chart_height", 500)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("max_upload_mb", 100)
	v.SetDefault("cache_entries", 32)
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath is ~/.tabloom/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabloom", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.tabloom/config.yaml) > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLOOM")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return nil, err
	}
	if _, err := c.DecimalRune(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseDelimiter maps a delimiter name to its rune; "" and "auto" mean sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter: %q", s)
	}
	return r[0], nil
}

// ParseDecimal maps "." or "," to the decimal separator rune.
func ParseDecimal(s string) (rune, error) {
	switch s {
	case "", ".":
		return '.', nil
	case ",":
		return ',', nil
	}
	return 0, fmt.Errorf("invalid decimal_separator: %q (use . or ,)", s)
}

// DelimiterRune returns the configured delimiter, 0 for auto-detection.
func (c *Global) DelimiterRune() (rune, error) { return ParseDelimiter(c.Delimiter) }

// DecimalRune returns the configured decimal separator.
func (c *Global) DecimalRune() (rune, error) { return ParseDecimal(c.DecimalSeparator) }

// Set assigns key from its string form, validating the value.
func (c *Global) Set(key, val string) error {
	setInt := func(dst *int, floor int) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < floor {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
		return nil
	}
	var err error
	switch key {
	case "delimiter":
		if _, err = ParseDelimiter(val); err == nil {
			c.Delimiter = val
		}
	case "decimal_separator":
		if _, err = ParseDecimal(val); err == nil {
			c.DecimalSeparator = val
		}
	case "drop_zero_columns":
		var b bool
		if b, err = strconv.ParseBool(val); err == nil {
			c.DropZeroColumns = b
		} else {
			err = fmt.Errorf("invalid bool for drop_zero_columns: %v", val)
		}
	case "preview_rows":
		err = setInt(&c.PreviewRows, 1)
	case "sample_rows":
		err = setInt(&c.SampleRows, 0)
	case "histogram_bins":
		err = setInt(&c.HistogramBins, 1)
	case "export_filename":
		c.ExportFilename = val
	case "chart_width":
		err = setInt(&c.ChartWidth, 100)
	case "chart_height":
		err = setInt(&c.ChartHeight, 100)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			err = fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			err = fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "server_addr":
		c.ServerAddr = val
	case "max_upload_mb":
		err = setInt(&c.MaxUploadMB, 1)
	case "cache_entries":
		err = setInt(&c.CacheEntries, 0)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "delimiter":
		return c.Delimiter, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "drop_zero_columns":
		return strconv.FormatBool(c.DropZeroColumns), nil
	case "preview_rows":
		return strconv.Itoa(c.PreviewRows), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "export_filename":
		return c.ExportFilename, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB), nil
	case "cache_entries":
		return strconv.Itoa(c.CacheEntries), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// LoadTypeHints reads a YAML mapping of column name to type ("text",
// "number", "datetime").
func LoadTypeHints(path string) (map[string]table.Type, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read type hints: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse type hints: %w", err)
	}
	out := make(map[string]table.Type, len(raw))
	for col, name := range raw {
		t, err := table.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("type hint for %s: %w", col, err)
		}
		out[col] = t
	}
	return out, nil
}
