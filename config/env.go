package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultReferenceURL = "https://permagate.io/IvkTHQGYtMUWCGtpkFsGTZefQQS9GkNj56QA-q3-8v4/02-Aurora2024-ReflectAndImprove.zip"
	defaultGatewayURL   = "https://permagate.io/"
	defaultArdriveBin   = "ardrive"
	defaultArtworkName  = "Cover.png"
	defaultChunkSize    = 8192
	defaultHTTPTimeout  = 30 * time.Minute
	defaultServerPort   = 8080
	defaultCORSOrigins  = "http://localhost:3000,http://localhost:5173"

	settingsFileName = ".releasegate-settings.json"
)

// Config carries every process-wide value the components need.
// It is built once at startup and handed to constructors.
type Config struct {
	ReferenceURL    string
	GatewayURL      string
	ArdriveBin      string
	ArtworkName     string
	AudioExtensions []string
	ChunkSize       int
	HTTPTimeout     time.Duration
	ServerPort      int
	CORSOrigins     []string
	SettingsPath    string
	UploadDir       string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ReferenceURL:    defaultReferenceURL,
		GatewayURL:      defaultGatewayURL,
		ArdriveBin:      defaultArdriveBin,
		ArtworkName:     defaultArtworkName,
		AudioExtensions: []string{".flac"},
		ChunkSize:       defaultChunkSize,
		HTTPTimeout:     defaultHTTPTimeout,
		ServerPort:      defaultServerPort,
		CORSOrigins:     strings.Split(defaultCORSOrigins, ","),
		SettingsPath:    defaultSettingsPath(),
		UploadDir:       os.TempDir(),
	}
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the process environment and the user settings file.
func Load() (*Config, error) {
	return LoadFrom(".env", defaultSettingsPath())
}

// LoadFrom is Load with explicit .env and settings file locations.
// Process environment wins over the .env file; the settings file wins over both.
func LoadFrom(envFile, settingsPath string) (*Config, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		if values != nil {
			dotenv = values
		}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return dotenv[key]
	}

	cfg := Default()
	cfg.SettingsPath = settingsPath

	if v := lookup("RELEASEGATE_REFERENCE_URL"); v != "" {
		cfg.ReferenceURL = v
	}
	if v := lookup("RELEASEGATE_GATEWAY_URL"); v != "" {
		cfg.GatewayURL = v
	}
	if v := lookup("RELEASEGATE_ARDRIVE_BIN"); v != "" {
		cfg.ArdriveBin = v
	}
	if v := lookup("RELEASEGATE_ARTWORK_NAME"); v != "" {
		cfg.ArtworkName = v
	}
	if v := lookup("RELEASEGATE_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := lookup("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	cfg.ChunkSize = parseIntOrDefault(lookup("RELEASEGATE_CHUNK_SIZE"), defaultChunkSize)
	cfg.ServerPort = parseIntOrDefault(lookup("SERVER_PORT"), defaultServerPort)
	cfg.HTTPTimeout = parseDurationOrDefault(lookup("RELEASEGATE_HTTP_TIMEOUT"), defaultHTTPTimeout)

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	cfg.Apply(settings)

	return cfg, nil
}

// Apply overlays the non-empty user settings onto the configuration
func (c *Config) Apply(s *UserSettings) {
	if s == nil {
		return
	}
	if s.ReferenceURL != "" {
		c.ReferenceURL = s.ReferenceURL
	}
	if s.GatewayURL != "" {
		c.GatewayURL = s.GatewayURL
	}
}

// Settings returns the user-editable part of the configuration
func (c *Config) Settings() *UserSettings {
	return &UserSettings{
		ReferenceURL: c.ReferenceURL,
		GatewayURL:   c.GatewayURL,
	}
}

func parseIntOrDefault(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Printf("Warning: Could not parse positive integer '%s', using default '%d'", s, defaultValue)
		return defaultValue
	}
	return n
}

func parseDurationOrDefault(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: Could not parse duration '%s', using default '%v'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return d
}

// UserSettings represents the settings a user can change at runtime
type UserSettings struct {
	ReferenceURL string `json:"referenceUrl"`
	GatewayURL   string `json:"gatewayUrl"`
}

// defaultSettingsPath returns the path to the settings file
func defaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return settingsFileName
	}
	return filepath.Join(homeDir, settingsFileName)
}

// LoadSettings reads the settings file. A missing file yields empty settings.
func LoadSettings(path string) (*UserSettings, error) {
	if path == "" {
		return &UserSettings{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserSettings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &settings, nil
}

// SaveSettings writes the settings file
func SaveSettings(path string, settings *UserSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
