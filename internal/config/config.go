package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Config represents the examflux configuration.
type Config struct {
	// BaseURL is the review backend root, read once at startup.
	BaseURL string `json:"baseURL"`
	// Format selects the output renderer (text, json).
	Format string `json:"format"`
	// TopK is the default similarity result-set size.
	TopK int `json:"topK"`
	// TimeoutSeconds bounds each backend call; 0 means no client timeout,
	// matching the original front-end behavior.
	TimeoutSeconds int `json:"timeoutSeconds"`

	Serve ServeConfig `json:"serve"`
}

// ServeConfig controls the reference backend started by `examflux serve`.
type ServeConfig struct {
	ListenAddr  string   `json:"listenAddr"`
	DBDriver    string   `json:"dbDriver"`
	DBDSN       string   `json:"dbDSN,omitempty"`
	CORSOrigins []string `json:"corsOrigins"`
	OpenAIModel string   `json:"openaiModel"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Format:  "text",
		TopK:    6,
		Serve: ServeConfig{
			ListenAddr:  ":8000",
			DBDriver:    "sqlite",
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			OpenAIModel: "gpt-4o-mini",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for examflux.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "examflux"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "examflux"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "examflux"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "examflux"), nil
	default:
		return filepath.Join(home, ".config", "examflux"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.TopK > 0 {
		dst.TopK = src.TopK
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.Serve.ListenAddr != "" {
		dst.Serve.ListenAddr = src.Serve.ListenAddr
	}
	if src.Serve.DBDriver != "" {
		dst.Serve.DBDriver = src.Serve.DBDriver
	}
	if src.Serve.DBDSN != "" {
		dst.Serve.DBDSN = src.Serve.DBDSN
	}
	if len(src.Serve.CORSOrigins) > 0 {
		dst.Serve.CORSOrigins = src.Serve.CORSOrigins
	}
	if src.Serve.OpenAIModel != "" {
		dst.Serve.OpenAIModel = src.Serve.OpenAIModel
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("EXAMFLUX_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("EXAMFLUX_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("EXAMFLUX_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("EXAMFLUX_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("EXAMFLUX_LISTEN_ADDR"); v != "" {
		cfg.Serve.ListenAddr = v
	}
	if v := os.Getenv("EXAMFLUX_DB_DRIVER"); v != "" {
		cfg.Serve.DBDriver = v
	}
	if v := os.Getenv("EXAMFLUX_DB_DSN"); v != "" {
		cfg.Serve.DBDSN = v
	}
	if v := os.Getenv("EXAMFLUX_CORS_ORIGINS"); v != "" {
		cfg.Serve.CORSOrigins = splitComma(v)
	}
	if v := os.Getenv("EXAMFLUX_OPENAI_MODEL"); v != "" {
		cfg.Serve.OpenAIModel = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["baseURL"]; ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["topK"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v, ok := overrides["timeoutSeconds"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v, ok := overrides["listenAddr"]; ok && v != "" {
		cfg.Serve.ListenAddr = v
	}
	if v, ok := overrides["dbDriver"]; ok && v != "" {
		cfg.Serve.DBDriver = v
	}
	if v, ok := overrides["dbDSN"]; ok && v != "" {
		cfg.Serve.DBDSN = v
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "baseURL":
		cfg.BaseURL = value
	case "format":
		cfg.Format = value
	case "topK":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("topK must be an integer: %w", err)
		}
		cfg.TopK = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "serve.listenAddr":
		cfg.Serve.ListenAddr = value
	case "serve.dbDriver":
		cfg.Serve.DBDriver = value
	case "serve.dbDSN":
		cfg.Serve.DBDSN = value
	case "serve.corsOrigins":
		cfg.Serve.CORSOrigins = splitComma(value)
	case "serve.openaiModel":
		cfg.Serve.OpenAIModel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
