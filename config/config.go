package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TargetURL string  `yaml:"target_url" toml:"target_url"`
	Browser   Browser `yaml:"browser" toml:"browser"`
	Storage   Storage `yaml:"storage" toml:"storage"`
	CSVPath   string  `yaml:"csv_path" toml:"csv_path"`
	HTMLPath  string  `yaml:"html_path" toml:"html_path"`
	Verbose   bool    `yaml:"verbose" toml:"verbose"`
}

type Browser struct {
	// RemoteURL attaches to an already running Chrome started with
	// --remote-debugging-port, e.g. http://127.0.0.1:9222.
	RemoteURL    string `yaml:"remote_url" toml:"remote_url"`
	Headless     bool   `yaml:"headless" toml:"headless"`
	UserDataDir  string `yaml:"user_data_dir" toml:"user_data_dir"`
	WindowWidth  int    `yaml:"window_width" toml:"window_width"`
	WindowHeight int    `yaml:"window_height" toml:"window_height"`
}

type Storage struct {
	Driver string `yaml:"driver" toml:"driver"`
	// Path is the results file for the file driver and the database file for sqlite.
	Path string `yaml:"path" toml:"path"`
	DSN  string `yaml:"dsn" toml:"dsn"`
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func DefaultConfig() *Config {
	return &Config{
		TargetURL: "https://ipostatus.kfintech.com/",
		Browser: Browser{
			Headless:     false,
			UserDataDir:  "output/chrome-profile",
			WindowWidth:  1366,
			WindowHeight: 900,
		},
		Storage: Storage{
			Driver: DriverFile,
			Path:   "output/results.json",
		},
		CSVPath:  "output/results.csv",
		HTMLPath: "output/results.html",
	}
}

// Load returns the defaults overlaid with the file at path (YAML or TOML,
// chosen by extension) and then with IPO_* environment variables. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("IPO_TARGET_URL")); v != "" {
		cfg.TargetURL = v
	}
	if v := strings.TrimSpace(os.Getenv("IPO_STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("IPO_STORAGE_DSN")); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("IPO_REMOTE_URL")); v != "" {
		cfg.Browser.RemoteURL = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TargetURL) == "" {
		errs = append(errs, errors.New("target_url must not be empty"))
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		errs = append(errs, errors.New("browser window size must be positive"))
	}

	return errors.Join(errs...)
}
