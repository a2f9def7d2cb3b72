package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileEnv names an optional YAML file whose values sit between the built-in
// defaults and the environment.
const FileEnv = "PHOTOPOET_CONFIG"

type Config struct {
	ListenAddr    string `yaml:"listen_addr"`
	VisionBackend string `yaml:"vision_backend"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GenkitModel   string `yaml:"genkit_model"`
	ClaudeAPIKey  string `yaml:"claude_api_key"`
	ClaudeModel   string `yaml:"claude_model"`
	OllamaHost    string `yaml:"ollama_host"`
	OllamaModel   string `yaml:"ollama_model"`

	GalleryBackend string `yaml:"gallery_backend"`
	GalleryKey     string `yaml:"gallery_key"`
	GalleryPath    string `yaml:"gallery_path"`
	DBPath         string `yaml:"db_path"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	RedisPrefix    string `yaml:"redis_prefix"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:     ":8080",
		VisionBackend:  "gemini",
		GeminiModel:    "gemini-2.5-flash",
		GenkitModel:    "googleai/gemini-2.5-flash",
		ClaudeModel:    "claude-sonnet-4-5",
		OllamaHost:     "http://localhost:11434",
		OllamaModel:    "llava",
		GalleryBackend: "file",
		GalleryKey:     "savedPoems",
		GalleryPath:    "/data/gallery",
		DBPath:         "/data/photopoet.db",
		RedisAddr:      "localhost:6379",
		RedisPrefix:    "photopoet:",
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, the file named by
// PHOTOPOET_CONFIG if set, and finally the environment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.VisionBackend = getEnv("VISION_BACKEND", cfg.VisionBackend)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GenkitModel = getEnv("GENKIT_MODEL", cfg.GenkitModel)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.GalleryBackend = getEnv("GALLERY_BACKEND", cfg.GalleryBackend)
	cfg.GalleryKey = getEnv("GALLERY_KEY", cfg.GalleryKey)
	cfg.GalleryPath = getEnv("GALLERY_PATH", cfg.GalleryPath)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisPrefix = getEnv("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	db, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = db

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
