package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Labhund/CompChemJobServer/core/models"
)

// Config holds the application configuration.
type Config struct {
	// JobDir is the root directory for input, output and scratch trees.
	JobDir string `yaml:"job_dir"`

	// Engine executable paths.
	QChemPath string `yaml:"qchem_path"`
	OrcaPath  string `yaml:"orca_path"`

	// MaxConcurrentJobs bounds simultaneous subprocess executions.
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`

	// JobTimeoutSeconds is the wall-clock deadline for one subprocess.
	JobTimeoutSeconds int `yaml:"job_timeout_seconds"`

	// ForceProgram, when set, pins every submission to a single engine
	// regardless of the requested program (ORCA-only deployments).
	ForceProgram string `yaml:"force_program"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		JobDir:            "./comp_jobs",
		QChemPath:         "/opt/qchem/bin/qchem",
		OrcaPath:          "/opt/orca/orca",
		MaxConcurrentJobs: 2,
		JobTimeoutSeconds: 3600,
		Host:              "0.0.0.0",
		Port:              8080,
	}
}

// Load reads configuration from a YAML file, applies environment
// overrides and validates the result. A missing file is not an error;
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.JobDir = getEnv("JOBSERVER_JOB_DIR", c.JobDir)
	c.QChemPath = getEnv("JOBSERVER_QCHEM_PATH", c.QChemPath)
	c.OrcaPath = getEnv("JOBSERVER_ORCA_PATH", c.OrcaPath)
	c.ForceProgram = getEnv("JOBSERVER_FORCE_PROGRAM", c.ForceProgram)
	c.Host = getEnv("JOBSERVER_HOST", c.Host)
	c.MaxConcurrentJobs = getEnvInt("JOBSERVER_MAX_CONCURRENT_JOBS", c.MaxConcurrentJobs)
	c.JobTimeoutSeconds = getEnvInt("JOBSERVER_JOB_TIMEOUT_SECONDS", c.JobTimeoutSeconds)
	c.Port = getEnvInt("JOBSERVER_PORT", c.Port)
}

// Validate checks option ranges and enumerations.
func (c *Config) Validate() error {
	if c.JobDir == "" {
		return fmt.Errorf("job_dir must not be empty")
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("max_concurrent_jobs must be >= 1, got %d", c.MaxConcurrentJobs)
	}
	if c.JobTimeoutSeconds < 1 {
		return fmt.Errorf("job_timeout_seconds must be >= 1, got %d", c.JobTimeoutSeconds)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in [1, 65535], got %d", c.Port)
	}
	if c.ForceProgram != "" && !models.Program(c.ForceProgram).Valid() {
		return fmt.Errorf("force_program must be one of qchem, orca; got %q", c.ForceProgram)
	}
	return nil
}

// ProgramPaths maps each engine to its configured executable path.
func (c *Config) ProgramPaths() map[models.Program]string {
	return map[models.Program]string{
		models.ProgramQChem: c.QChemPath,
		models.ProgramORCA:  c.OrcaPath,
	}
}

// ListenAddr is the host:port pair for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
