package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	User     UserConfig      `json:"user"`
	Model    ModelConfig     `json:"model"`
	Task     TaskConfig      `json:"task"`
	Server   ServerConfig    `json:"server"`
	Personas []PersonaConfig `json:"personas,omitempty"`
	SeedDemo bool            `json:"seed_demo_data"`
}

type UserConfig struct {
	Name          string `json:"name"`
	WorkStartHour int    `json:"work_start_hour"`
	WorkEndHour   int    `json:"work_end_hour"`
	Theme         string `json:"theme"`
	Timezone      string `json:"timezone"`
}

type ModelConfig struct {
	BaseURL              string  `json:"base_url,omitempty"`
	Name                 string  `json:"name"`
	APIKeyEnv            string  `json:"api_key_env"`
	GenerationTimeoutSec int     `json:"generation_timeout_sec"`
	Temperature          float64 `json:"temperature"`
}

type TaskConfig struct {
	SweepIntervalSec int `json:"sweep_interval_sec"`
	MoodWindow       int `json:"mood_window"`
}

type ServerConfig struct {
	HTTPPort int `json:"http_port"`
}

// PersonaConfig overrides one built-in persona. Blank fields keep the
// built-in value.
type PersonaConfig struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	Description       string `json:"description,omitempty"`
	SystemInstruction string `json:"system_instruction,omitempty"`
}

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

func DefaultPath() string {
	return filepath.Join("config", "config.json")
}

func NewManager(path string) (*Manager, error) {
	mgr := &Manager{
		path: path,
		cfg:  defaultConfig(),
	}
	if err := mgr.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := mgr.save(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Update(apply func(*Config)) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
	applyDefaults(&m.cfg)
	if err := m.saveLocked(); err != nil {
		return Config{}, err
	}
	return m.cfg, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	m.cfg = fileCfg
	applyDefaults(&m.cfg)
	return nil
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

func defaultConfig() Config {
	return Config{
		User: UserConfig{
			Name:          "Alex",
			WorkStartHour: 9,
			WorkEndHour:   18,
			Theme:         "dark",
			Timezone:      "Asia/Shanghai",
		},
		Model: ModelConfig{
			Name:                 "qwen-turbo",
			APIKeyEnv:            "OPENAI_API_KEY",
			GenerationTimeoutSec: 30,
			Temperature:          0.7,
		},
		Task: TaskConfig{
			SweepIntervalSec: 60,
			MoodWindow:       14,
		},
		Server: ServerConfig{
			HTTPPort: 8080,
		},
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.User.Name) == "" {
		cfg.User.Name = "Alex"
	}
	if cfg.User.WorkStartHour < 0 || cfg.User.WorkStartHour > 23 {
		cfg.User.WorkStartHour = 9
	}
	if cfg.User.WorkEndHour <= cfg.User.WorkStartHour || cfg.User.WorkEndHour > 24 {
		cfg.User.WorkEndHour = 18
	}
	if cfg.User.Theme != "light" && cfg.User.Theme != "dark" {
		cfg.User.Theme = "dark"
	}
	if strings.TrimSpace(cfg.User.Timezone) == "" {
		cfg.User.Timezone = "Asia/Shanghai"
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		cfg.Model.Name = "qwen-turbo"
	}
	if strings.TrimSpace(cfg.Model.APIKeyEnv) == "" {
		cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Model.GenerationTimeoutSec <= 0 {
		cfg.Model.GenerationTimeoutSec = 30
	}
	if cfg.Model.Temperature <= 0 || cfg.Model.Temperature > 2 {
		cfg.Model.Temperature = 0.7
	}
	if cfg.Task.SweepIntervalSec <= 0 {
		cfg.Task.SweepIntervalSec = 60
	}
	if cfg.Task.MoodWindow <= 0 {
		cfg.Task.MoodWindow = 14
	}
	if cfg.Server.HTTPPort <= 0 {
		cfg.Server.HTTPPort = 8080
	}
}

// APIKey resolves the generation credential from the configured environment
// variable. Empty means the generation call is unconfigured.
func (c ModelConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(c.APIKeyEnv))
}
