package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFlowLogPath = "flow_logs.txt"
	DefaultLookupPath  = "lookup_table.csv"
	DefaultOutputPath  = "results.csv"

	FormatText = "text"
	FormatPcap = "pcap"
)

var (
	// ErrUsage is returned when the positional arguments do not match any supported form.
	ErrUsage = errors.New("invalid number of arguments")
	// ErrInputNotFound is returned when a required input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrEmptyPath is returned when a resolved path is the empty string.
	ErrEmptyPath = errors.New("empty path")
)

// InputConfig holds the default file locations and the flow source format.
type InputConfig struct {
	FlowLogPath string `yaml:"flow_log_path"`
	LookupPath  string `yaml:"lookup_path"`
	OutputPath  string `yaml:"output_path"`
	Format      string `yaml:"format"`
}

// AggregatorConfig holds the configuration for the flow aggregator.
type AggregatorConfig struct {
	NumWorkers        int `yaml:"num_workers"`
	SizeOfLineChannel int `yaml:"size_of_line_channel"`
}

// JSONConfig configures the JSON/gob summary writer.
type JSONConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds the connection details for publishing reports to NATS.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// SQLiteConfig holds the database file used by the SQLite writer.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MinIOConfig holds the object storage target for report uploads.
// Empty credentials are read from MIO_ACCESS_KEY_ID and MIO_SECRET_KEY.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// WriterDef defines a single extra report writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	JSON       JSONConfig       `yaml:"json"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	MinIO      MinIOConfig      `yaml:"minio"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Writers    []WriterDef      `yaml:"writers"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			FlowLogPath: DefaultFlowLogPath,
			LookupPath:  DefaultLookupPath,
			OutputPath:  DefaultOutputPath,
			Format:      FormatText,
		},
		Aggregator: AggregatorConfig{
			NumWorkers:        1,
			SizeOfLineChannel: 1024,
		},
	}
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields absent from the file keep their default values.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Input.Format {
	case "":
		c.Input.Format = FormatText
	case FormatText, FormatPcap:
	default:
		return fmt.Errorf("unknown input format: '%s'", c.Input.Format)
	}
	if c.Aggregator.NumWorkers <= 0 {
		c.Aggregator.NumWorkers = 1
	}
	if c.Aggregator.SizeOfLineChannel < 0 {
		return fmt.Errorf("size_of_line_channel must not be negative")
	}
	return nil
}

// Paths are the three resolved locations a run works with.
type Paths struct {
	FlowLog string
	Lookup  string
	Output  string
}

// ResolvePaths picks the run's paths from the positional arguments.
// No arguments selects the configured defaults, three arguments are taken as
// flow log, lookup table and output, in that order.
func ResolvePaths(cfg *Config, args []string) (Paths, error) {
	var p Paths
	switch len(args) {
	case 0:
		p = Paths{
			FlowLog: cfg.Input.FlowLogPath,
			Lookup:  cfg.Input.LookupPath,
			Output:  cfg.Input.OutputPath,
		}
	case 3:
		p = Paths{FlowLog: args[0], Lookup: args[1], Output: args[2]}
	default:
		return Paths{}, fmt.Errorf("%w: got %d, want 0 or 3", ErrUsage, len(args))
	}

	if p.FlowLog == "" || p.Lookup == "" || p.Output == "" {
		return Paths{}, fmt.Errorf("%w: flow log '%s', lookup table '%s', output '%s'", ErrEmptyPath, p.FlowLog, p.Lookup, p.Output)
	}
	return p, nil
}

// CheckInputs verifies that both input files exist before any processing starts.
func (p Paths) CheckInputs() error {
	if _, err := os.Stat(p.FlowLog); err != nil {
		return fmt.Errorf("%w: flow log file '%s'", ErrInputNotFound, p.FlowLog)
	}
	if _, err := os.Stat(p.Lookup); err != nil {
		return fmt.Errorf("%w: lookup table file '%s'", ErrInputNotFound, p.Lookup)
	}
	return nil
}

// Usage prints the invocation forms and the default file names.
func Usage(w io.Writer, program string, cfg *Config) {
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s [flags]\n", program)
	fmt.Fprintf(w, "  %s [flags] <flow_log_file> <lookup_file> <output_file>\n", program)
	fmt.Fprintf(w, "\nIf no arguments are provided, the program will look for:\n")
	fmt.Fprintf(w, "  - Flow log file: %s\n", cfg.Input.FlowLogPath)
	fmt.Fprintf(w, "  - Lookup table: %s\n", cfg.Input.LookupPath)
	fmt.Fprintf(w, "  - Output file: %s\n", cfg.Input.OutputPath)
}
