package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	appName       = "StockSentiment"
	defaultDBName = "sentiment.db"

	envDataDir = "STOCK_SENTIMENT_DATA_DIR"
	envDBPath  = "STOCK_SENTIMENT_DB_PATH"
	envTimeout = "STOCK_SENTIMENT_REQUEST_TIMEOUT"
)

// UserConfig is persisted as config.json in the per-user config directory.
type UserConfig struct {
	DBName                string `json:"db_name"`
	DataDir               string `json:"data_dir"`
	Provider              string `json:"provider,omitempty"`
	Model                 string `json:"model,omitempty"`
	BaseURL               string `json:"base_url,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
}

var runtimeDataDir string
var runtimePort = 8000

// apiKeyEnv lists the variables consulted per provider, first match wins.
var apiKeyEnv = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

func GetRuntimePort() int {
	return runtimePort
}

// LoadEnv reads a .env file from the working directory if present.
// Variables already set in the environment are not overridden.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// APIKey returns the configured credential for a model provider.
func APIKey(provider string) string {
	for _, name := range apiKeyEnv[strings.ToLower(strings.TrimSpace(provider))] {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

// RequestTimeout resolves the model request deadline. The environment
// wins over config.json; zero means the library default.
func RequestTimeout(cfg UserConfig) time.Duration {
	if value := strings.TrimSpace(os.Getenv(envTimeout)); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	if cfg.RequestTimeoutSeconds > 0 {
		return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return 0
}

func appConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch {
	case IsMacOS():
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case IsWindows():
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, appName), nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "stocksentiment"), nil
	}
	return filepath.Join(home, ".config", "stocksentiment"), nil
}

func appConfigPath() (string, error) {
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// localConfigPath finds a config.json next to the working directory or the
// executable. It is only used when the per-user file is absent.
func localConfigPath() string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func IsFirstRun() bool {
	path, err := appConfigPath()
	if err != nil {
		return true
	}
	_, err = os.Stat(path)
	return err != nil
}

func LoadUserConfig() UserConfig {
	cfg := UserConfig{DBName: defaultDBName}

	path, err := appConfigPath()
	if err != nil {
		return cfg
	}
	if _, err := os.Stat(path); err != nil {
		path = localConfigPath()
	}
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return UserConfig{DBName: defaultDBName}
	}
	cfg.DBName = strings.TrimSpace(cfg.DBName)
	if cfg.DBName == "" {
		cfg.DBName = defaultDBName
	}
	return cfg
}

func SaveUserConfig(cfg UserConfig) error {
	path, err := appConfigPath()
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetDataDir() (string, error) {
	dir := runtimeDataDir
	if dir == "" {
		dir = os.Getenv(envDataDir)
	}
	if dir == "" {
		dir = LoadUserConfig().DataDir
	}
	if dir == "" {
		var err error
		if dir, err = appConfigDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func GetDBPath() (string, error) {
	if envPath := os.Getenv(envDBPath); envPath != "" {
		return envPath, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, LoadUserConfig().DBName), nil
}
