// Package config loads run settings from an optional YAML file, a .env file
// and DOUYIN_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the three commands need.
type Config struct {
	// InputPath is the accounts sheet with Account and douyin_user_sec_id.
	InputPath string `yaml:"input_path"`
	// OutputDir holds the accumulated users and posts tables.
	OutputDir string `yaml:"output_dir"`
	UsersFile string `yaml:"users_file"`
	PostsFile string `yaml:"posts_file"`
	// DemoHandle is resolved by cmd/secuid.
	DemoHandle string `yaml:"demo_handle"`
	// CookiesFile, when set, is loaded into the browser at start and
	// rewritten at exit.
	CookiesFile string `yaml:"cookies_file"`
	// ProxyAPI is the proxy pool endpoint; empty disables proxies.
	ProxyAPI string `yaml:"proxy_api"`

	Browser BrowserConfig `yaml:"browser"`
	Delays  DelayConfig   `yaml:"delays"`
	Logging LoggingConfig `yaml:"logging"`
}

// BrowserConfig controls the Chrome instance.
type BrowserConfig struct {
	Headless        bool          `yaml:"headless"`
	InitScript      string        `yaml:"init_script"`
	UserDataDir     string        `yaml:"user_data_dir"`
	BlockMedia      bool          `yaml:"block_media"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
}

// DelayConfig holds the fixed waits between steps.
type DelayConfig struct {
	SearchSettle  time.Duration `yaml:"search_settle"`
	Reload        time.Duration `yaml:"reload"`
	ProfileSettle time.Duration `yaml:"profile_settle"`
	ProfileAPI    time.Duration `yaml:"profile_api"`
	PostsAPI      time.Duration `yaml:"posts_api"`
}

// LoggingConfig selects the log level and an optional log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		InputPath:  "data/51cg1_hyperlinks_results2.xlsx",
		OutputDir:  filepath.Join("data", "douyin", "user_info"),
		UsersFile:  "douyin_user_info.xlsx",
		PostsFile:  "douyin_posts_info.xlsx",
		DemoHandle: "91811174783",
		Browser: BrowserConfig{
			Headless:        false,
			ResponseTimeout: 30 * time.Second,
		},
		Delays: DelayConfig{
			SearchSettle:  4 * time.Second,
			Reload:        2 * time.Second,
			ProfileSettle: 3 * time.Second,
			ProfileAPI:    1 * time.Second,
			PostsAPI:      1 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// UsersPath is the full path of the users table.
func (c *Config) UsersPath() string {
	return filepath.Join(c.OutputDir, c.UsersFile)
}

// PostsPath is the full path of the posts table.
func (c *Config) PostsPath() string {
	return filepath.Join(c.OutputDir, c.PostsFile)
}

// Load builds the config: defaults, then the YAML file named by
// DOUYIN_CONFIG (default douyin.yaml) if present, then .env, then the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Default()
	path := getEnv("DOUYIN_CONFIG", "douyin.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.InputPath = getEnv("DOUYIN_INPUT", c.InputPath)
	c.OutputDir = getEnv("DOUYIN_OUTPUT_DIR", c.OutputDir)
	c.UsersFile = getEnv("DOUYIN_USERS_FILE", c.UsersFile)
	c.PostsFile = getEnv("DOUYIN_POSTS_FILE", c.PostsFile)
	c.DemoHandle = getEnv("DOUYIN_DEMO_HANDLE", c.DemoHandle)
	c.CookiesFile = getEnv("DOUYIN_COOKIES_FILE", c.CookiesFile)
	c.ProxyAPI = getEnv("DOUYIN_PROXY_API", c.ProxyAPI)
	c.Browser.InitScript = getEnv("DOUYIN_INIT_SCRIPT", c.Browser.InitScript)
	c.Browser.UserDataDir = getEnv("DOUYIN_USER_DATA_DIR", c.Browser.UserDataDir)
	c.Logging.Level = getEnv("DOUYIN_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("DOUYIN_LOG_FILE", c.Logging.File)

	if v, ok := os.LookupEnv("DOUYIN_HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DOUYIN_HEADLESS %q: %w", v, err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
