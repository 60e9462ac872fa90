package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConcurrency    = 4
	DefaultRetryAttempts  = 3
	DefaultAutoMergeLabel = "auto-merge"
	DefaultAutoMergeLogin = "pinbump[bot]"
	DefaultListenAddress  = ":8080"
)

// Settings is the top-level configuration for pinbump.
type Settings struct {
	Token        string             `yaml:"token"` // Inline, ${ENV_VAR}, or file path
	Privileged   bool               `yaml:"privileged"`
	Marker       string             `yaml:"marker"`
	Branch       string             `yaml:"branch"`
	Labels       []string           `yaml:"labels"`
	Author       AuthorSettings     `yaml:"author"`
	Concurrency  int                `yaml:"concurrency"`
	Retry        RetrySettings      `yaml:"retry"`
	Repositories []RepositoryConfig `yaml:"repositories"`
	AutoMerge    AutoMergeSettings  `yaml:"auto_merge"`
}

// AuthorSettings overrides the bot identity used for commits.
type AuthorSettings struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// RetrySettings bounds the retry of the read-only scan phase.
type RetrySettings struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// RepositoryConfig describes one repository to keep up to date.
type RepositoryConfig struct {
	Name    string   `yaml:"name"` // owner/name
	Base    string   `yaml:"base"`
	Branch  string   `yaml:"branch"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Labels  []string `yaml:"labels"`
}

// AutoMergeSettings configures the webhook-driven merge gate.
type AutoMergeSettings struct {
	Login         string `yaml:"login"`
	Label         string `yaml:"label"`
	WebhookSecret string `yaml:"webhook_secret"`
	Listen        string `yaml:"listen"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`) //nolint:gochecknoglobals // compiled once

// NewSettings reads and parses a settings file, expanding environment
// variables, resolving token file paths and filling defaults.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings parses raw YAML settings.
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Token = resolveToken(settings.Token)
	settings.AutoMerge.WebhookSecret = resolveToken(settings.AutoMerge.WebhookSecret)
	settings.applyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}
	return &settings, nil
}

// DefaultSettings returns the settings used when no file is found.
func DefaultSettings() *Settings {
	settings := &Settings{}
	settings.applyDefaults()
	return settings
}

func (s *Settings) applyDefaults() {
	if s.Marker == "" {
		s.Marker = DefaultMarker
	}
	if s.Branch == "" {
		s.Branch = DefaultBranchName
	}
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.Retry.MaxAttempts <= 0 {
		s.Retry.MaxAttempts = DefaultRetryAttempts
	}
	if s.AutoMerge.Login == "" {
		s.AutoMerge.Login = DefaultAutoMergeLogin
	}
	if s.AutoMerge.Label == "" {
		s.AutoMerge.Label = DefaultAutoMergeLabel
	}
	if s.AutoMerge.Listen == "" {
		s.AutoMerge.Listen = DefaultListenAddress
	}
}

// CommitAuthor returns the configured identity, or the default bot identity.
func (s *Settings) CommitAuthor() CommitAuthor {
	if s.Author.Name == "" || s.Author.Email == "" {
		return DefaultAuthor()
	}
	return CommitAuthor{Name: s.Author.Name, Email: s.Author.Email}
}

// UpdateOptionsFor merges the global settings with one repository entry.
func (s *Settings) UpdateOptionsFor(repo RepositoryConfig) UpdateOptions {
	branch := repo.Branch
	if branch == "" {
		branch = s.Branch
	}
	labels := repo.Labels
	if len(labels) == 0 {
		labels = s.Labels
	}
	return UpdateOptions{
		BaseBranch: repo.Base,
		Branch:     branch,
		Include:    repo.Include,
		Exclude:    repo.Exclude,
		Labels:     labels,
		Privileged: s.Privileged,
		Marker:     s.Marker,
		Author:     s.CommitAuthor(),
	}
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".pinbump.yaml",
		".pinbump.yml",
		"pinbump.yaml",
		"pinbump.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks the repository entries and the path filters.
func validate(settings *Settings) error {
	for i, repo := range settings.Repositories {
		if repo.Name == "" {
			return fmt.Errorf("repositories[%d].name is required", i)
		}
		if _, err := ParseRepository(repo.Name); err != nil {
			return fmt.Errorf("repositories[%d].name: %w", i, err)
		}
		for j, pattern := range repo.Include {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("repositories[%d].include[%d] must not be empty", i, j)
			}
		}
		for j, pattern := range repo.Exclude {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("repositories[%d].exclude[%d] must not be empty", i, j)
			}
		}
	}
	return nil
}
