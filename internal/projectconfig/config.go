// Package projectconfig provides the ProjectConfig struct and loader for
// .levelup.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/levelup-project/levelup/internal/transcript"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".levelup.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultServerPort = 7860
	DefaultImagesDir  = "images"
	DefaultTicketsDir = "."

	DefaultChatSystem = transcript.DefaultSystemMessage

	DefaultVisionConsoleSystem = "You are an AI assistant in a grocery store that sells fruit. " +
		"You provide detailed answers to questions about produce."
	DefaultVisionWebSystem = "You are an AI assistant in a grocery store that sells fruit. " +
		"Answer clearly and concisely. If an image is provided, use it to ground your answer, " +
		"describing only what is visible."
	DefaultVisionImageURL = "https://github.com/MicrosoftLearning/mslearn-ai-vision/raw/refs/heads/main/" +
		"Labfiles/gen-ai-vision/orange.jpeg"

	DefaultSessionTTL = 30 * time.Minute
)

// ServerConfig holds browser UI server settings.
type ServerConfig struct {
	Port       int           `yaml:"port,omitempty"`
	NoBrowser  *bool         `yaml:"no_browser,omitempty"`
	SessionTTL time.Duration `yaml:"session_ttl,omitempty"`
}

// ChatConfig holds chat demo settings.
type ChatConfig struct {
	System string `yaml:"system,omitempty"`
	Theme  string `yaml:"theme,omitempty"`
}

// VisionConfig holds vision demo settings.
type VisionConfig struct {
	ConsoleSystem   string `yaml:"console_system,omitempty"`
	WebSystem       string `yaml:"web_system,omitempty"`
	DefaultImageURL string `yaml:"default_image_url,omitempty"`
}

// ImagesConfig holds image generation settings.
type ImagesConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// TicketsConfig holds support ticket settings.
type TicketsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .levelup.yaml.
type ProjectConfig struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Chat    ChatConfig    `yaml:"chat,omitempty"`
	Vision  VisionConfig  `yaml:"vision,omitempty"`
	Images  ImagesConfig  `yaml:"images,omitempty"`
	Tickets TicketsConfig `yaml:"tickets,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Server: ServerConfig{
			Port:       DefaultServerPort,
			NoBrowser:  boolPtr(false),
			SessionTTL: DefaultSessionTTL,
		},
		Chat: ChatConfig{
			System: DefaultChatSystem,
		},
		Vision: VisionConfig{
			ConsoleSystem:   DefaultVisionConsoleSystem,
			WebSystem:       DefaultVisionWebSystem,
			DefaultImageURL: DefaultVisionImageURL,
		},
		Images: ImagesConfig{
			Dir: DefaultImagesDir,
		},
		Tickets: TicketsConfig{
			Dir: DefaultTicketsDir,
		},
	}
}

// Load finds .levelup.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .levelup.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.NoBrowser != nil {
		dst.Server.NoBrowser = src.Server.NoBrowser
	}
	if src.Server.SessionTTL != 0 {
		dst.Server.SessionTTL = src.Server.SessionTTL
	}

	// Chat
	if src.Chat.System != "" {
		dst.Chat.System = src.Chat.System
	}
	if src.Chat.Theme != "" {
		dst.Chat.Theme = src.Chat.Theme
	}

	// Vision
	if src.Vision.ConsoleSystem != "" {
		dst.Vision.ConsoleSystem = src.Vision.ConsoleSystem
	}
	if src.Vision.WebSystem != "" {
		dst.Vision.WebSystem = src.Vision.WebSystem
	}
	if src.Vision.DefaultImageURL != "" {
		dst.Vision.DefaultImageURL = src.Vision.DefaultImageURL
	}

	if src.Images.Dir != "" {
		dst.Images.Dir = src.Images.Dir
	}
	if src.Tickets.Dir != "" {
		dst.Tickets.Dir = src.Tickets.Dir
	}
}

func boolPtr(b bool) *bool {
	return &b
}
