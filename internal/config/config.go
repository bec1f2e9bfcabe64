package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileNames are searched in order in each directory walking upwards.
// JSON configs are read by the YAML decoder as well.
var FileNames = []string{".solaudit.yaml", ".solaudit.yml", ".solaudit.json"}

type IgnoreRule struct {
	Rule    string `json:"rule" yaml:"rule"`
	Path    string `json:"path" yaml:"path"`
	Reason  string `json:"reason" yaml:"reason"`
	Expires string `json:"expires,omitempty" yaml:"expires,omitempty"` // YYYY-MM-DD
}

type Solc struct {
	Path    string        `json:"path" yaml:"path"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	Cache   bool          `json:"cache" yaml:"cache"`
}

type Report struct {
	Path string `json:"path" yaml:"path"`
}

type Database struct {
	Driver string `json:"driver" yaml:"driver"` // sqlite | postgres
	DSN    string `json:"dsn" yaml:"dsn"`
}

type Config struct {
	SeverityThreshold string       `json:"severityThreshold" yaml:"severityThreshold"`
	Rules             []string     `json:"rules" yaml:"rules"`
	Ignore            []IgnoreRule `json:"ignore" yaml:"ignore"`
	Workers           int          `json:"workers" yaml:"workers"`
	LogLevel          string       `json:"logLevel" yaml:"logLevel"`
	Report            Report       `json:"report" yaml:"report"`
	Solc              Solc         `json:"solc" yaml:"solc"`
	Database          Database     `json:"database" yaml:"database"`
}

func Default() Config {
	return Config{
		SeverityThreshold: "low",
		LogLevel:          "info",
		Report:            Report{Path: filepath.Join("reports", "analysis_report.md")},
		Solc:              Solc{Cache: true},
	}
}

// Load searches startDir and its parents for a config file. A missing file is
// not an error; the defaults are returned with an empty path.
func Load(startDir string) (Config, string, error) {
	cfg := Default()
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return cfg, "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				cfg, err = LoadFile(candidate)
				return cfg, candidate, err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached root
			break
		}
		dir = parent
	}
	return cfg, "", nil
}

// LoadFile reads one config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// LoadEnv loads dir/.env into the process environment without overriding
// variables that are already set.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Expired reports whether the ignore rule has passed its expiry date.
func (r IgnoreRule) Expired(now time.Time) bool {
	if r.Expires == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", r.Expires)
	if err != nil {
		return false
	}
	return now.After(t.Add(24 * time.Hour))
}
