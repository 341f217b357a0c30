package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var gitSHA string
var buildDate string

// Preset bundles a format, sample rate and bitrate under a memorable name,
// e.g. the ogg/32kHz/128k combination Hearts of Iron IV mods need.
type Preset struct {
	Name        string `yaml:"name"`
	Format      string `yaml:"format"`
	SampleRate  int    `yaml:"sample_rate"`
	Bitrate     string `yaml:"bitrate"`
	Description string `yaml:"description"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	UploadDir string `yaml:"upload_dir"`
	OutputDir string `yaml:"output_dir"`
	TempDir   string `yaml:"temp_dir"`

	MaxUploadMB int64 `yaml:"max_upload_mb"`
	Workers     int   `yaml:"workers"`

	RetentionHours     int `yaml:"retention_hours"`
	SweepIntervalMins  int `yaml:"sweep_interval_mins"`
	MaxSourcesPerBatch int `yaml:"max_sources_per_batch"`

	Presets map[string]Preset `yaml:"presets"`
}

// ManagedDirs returns the directories the retention sweeper reclaims.
func (c Config) ManagedDirs() []string {
	return []string{c.UploadDir, c.OutputDir, c.TempDir}
}

func Default() Config {
	dataDir := GetDataDir()
	return Config{
		ListenAddr:         ":8080",
		UploadDir:          filepath.Join(dataDir, "uploads"),
		OutputDir:          filepath.Join(dataDir, "outputs"),
		TempDir:            filepath.Join(dataDir, "temp"),
		MaxUploadMB:        500,
		Workers:            4,
		RetentionHours:     24,
		SweepIntervalMins:  60,
		MaxSourcesPerBatch: 10,
		Presets: map[string]Preset{
			"hoi4": {
				Name: "Hearts of Iron IV Mod", Format: "ogg", SampleRate: 32000, Bitrate: "128k",
				Description: "Optimal settings for HOI4 game mods",
			},
			"stellaris": {
				Name: "Stellaris Mod", Format: "ogg", SampleRate: 44100, Bitrate: "192k",
				Description: "Settings for Stellaris game mods",
			},
			"ck3": {
				Name: "Crusader Kings III Mod", Format: "ogg", SampleRate: 48000, Bitrate: "192k",
				Description: "Settings for CK3 game mods",
			},
			"hq": {
				Name: "High Quality", Format: "flac",
				Description: "Lossless audio preservation",
			},
			"compressed": {
				Name: "Compressed", Format: "mp3", SampleRate: 44100, Bitrate: "128k",
				Description: "Small file size, good quality",
			},
			"podcast": {
				Name: "Podcast", Format: "mp3", SampleRate: 44100, Bitrate: "96k",
				Description: "Optimized for speech",
			},
			"music_hq": {
				Name: "Music HQ", Format: "mp3", SampleRate: 44100, Bitrate: "320k",
				Description: "High quality music",
			},
			"voice": {
				Name: "Voice Recording", Format: "mp3", SampleRate: 22050, Bitrate: "64k",
				Description: "Optimized for voice recordings",
			},
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func GetDataDir() string {
	value, exists := os.LookupEnv("AUDIOCONV_DATA_DIR")
	if exists {
		return value
	}
	return "data"
}

// defaults to GetDataDir() / config
func GetConfigDir() string {
	value, exists := os.LookupEnv("AUDIOCONV_CONFIG_DIR")
	if exists {
		return value
	}
	return filepath.Join(GetDataDir(), "config")
}

// GetConfigFile returns the YAML config path, or "" when unset.
func GetConfigFile() string {
	value, exists := os.LookupEnv("AUDIOCONV_CONFIG_FILE")
	if exists {
		return value
	}
	return ""
}

func GetAdminInitialPassword() (string, error) {
	key := "AUDIOCONV_ADMIN_INITIAL_PASSWORD"
	value, exists := os.LookupEnv(key)
	if exists {
		return value, nil
	}
	return "", fmt.Errorf("please set %s", key)
}

func GetSessionAuthKey() ([]byte, error) {
	key := "AUDIOCONV_SESSION_AUTH_KEY"
	value, exists := os.LookupEnv(key)
	if exists {
		return []byte(value), nil
	}
	return []byte{}, fmt.Errorf("please set %s", key)
}

func GetSecure() bool {
	key := "AUDIOCONV_SECURE"
	if value, exists := os.LookupEnv(key); exists {
		lower := strings.ToLower(value)
		if lower == "on" || lower == "1" || lower == "true" || lower == "yes" {
			return true
		}
	}
	return false
}

func GetGitSHA() string {
	if gitSHA == "" {
		return "<not provided>"
	}
	return gitSHA
}

func GetBuildDate() string {
	if buildDate == "" {
		return "<not provided>"
	}
	return buildDate
}
