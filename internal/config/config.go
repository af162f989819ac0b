package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Mount declares one OpenAPI definition to serve, at an optional path prefix
type Mount struct {
	Spec   string `yaml:"spec"`
	Prefix string `yaml:"prefix"`
}

// Validation controls response validation behaviour and body trimming
type Validation struct {
	Response string `yaml:"response"`
	Trim     string `yaml:"trim"`
}

// Config is the server's mount configuration
type Config struct {
	Mounts     []Mount    `yaml:"mounts"`
	Validation Validation `yaml:"validation"`
}

// ServerConfig holds application-wide settings loaded from the environment
type ServerConfig struct {
	Port string
}

// LoadServerConfig loads settings from environment variables
func LoadServerConfig() *ServerConfig {
	port := os.Getenv("APIROUTE_PORT")
	if port == "" {
		port = "8080"
	}
	return &ServerConfig{Port: port}
}

// LoadConfig loads and parses a YAML mount configuration file. Relative spec
// paths are resolved against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	data = []byte(substituteEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if len(cfg.Mounts) == 0 {
		return nil, fmt.Errorf("config file %s declares no mounts", path)
	}

	baseDir := filepath.Dir(path)
	for i := range cfg.Mounts {
		mount := &cfg.Mounts[i]
		if mount.Spec == "" {
			return nil, fmt.Errorf("mount %d declares no spec", i)
		}
		if !filepath.IsAbs(mount.Spec) && !isURL(mount.Spec) {
			mount.Spec = filepath.Join(baseDir, mount.Spec)
		}
	}
	return &cfg, nil
}

func isURL(s string) bool {
	return regexp.MustCompile(`^https?://`).MatchString(s)
}

// substituteEnvVars replaces ${env.VAR} and ${env.VAR:-default} with environment variable values
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{env\.([A-Z0-9_]+)(:-([^}]+))?\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		groups := re.FindStringSubmatch(match)
		envVar := groups[1]
		defaultValue := groups[3]
		if value, exists := os.LookupEnv(envVar); exists {
			return value
		}
		return defaultValue
	})
}
