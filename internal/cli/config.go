package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds CLI configuration. Flags override the environment.
type Config struct {
	ServerURL string `env:"SNOOKERCTL_SERVER" env-default:"http://localhost:8080"`
	Token     string `env:"SNOOKERCTL_TOKEN"`
	TokenFile string `env:"SNOOKERCTL_TOKEN_FILE"`
	Output    string `env:"SNOOKERCTL_OUTPUT" env-default:"text"`
	Verbose   bool
}

// DefaultConfig returns a Config read from the environment
func DefaultConfig() *Config {
	c := &Config{}
	if err := cleanenv.ReadEnv(c); err != nil {
		c.ServerURL = "http://localhost:8080"
		c.Output = "text"
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return c
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0o600)
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".snookerctl/token"
	}
	return filepath.Join(home, ".snookerctl", "token")
}
