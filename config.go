package osarun

import (
	"io/ioutil"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration options.
type Config struct {
	Interpreter    string `yaml:"interpreter"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	ScriptsDir     string `yaml:"scriptsDir"`
	CertsDir       string `yaml:"certsDir"`
}

// GetConfig creates and returns a Config from the given filepath.
func GetConfig(path string) (*Config, error) {
	var C Config
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return &C, err
	}
	err = yaml.Unmarshal(b, &C)
	return &C, err
}

// Timeout returns the configured execution bound, falling back to
// DefaultTimeout when unset.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CertFiles returns the conventional certificate paths under CertsDir,
// resolved against base when the directory is relative. All three are
// empty when no CertsDir is configured.
func (c *Config) CertFiles(base string) (caCert, cert, key string) {
	if c.CertsDir == "" {
		return "", "", ""
	}
	dir := c.CertsDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return filepath.Join(dir, `ca.crt`), filepath.Join(dir, `server.crt`), filepath.Join(dir, `server.key`)
}
