package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tools4ai/internal/actions"
)

// ErrMissingSetting is returned by Validate when a required key is empty.
var ErrMissingSetting = errors.New("missing required setting")

// Config holds all tools4ai configuration.
type Config struct {
	// Vertex AI model settings
	Vertex VertexConfig `yaml:"vertex"`

	// Approval and explanation gates
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Declarative action manifests
	Loaders LoadersConfig `yaml:"loaders"`

	// Shell and HTTP action execution
	Execution ExecutionConfig `yaml:"execution"`

	Script ScriptConfig `yaml:"script"`
	Detect DetectConfig `yaml:"detect"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// VertexConfig selects the project, region and model.
type VertexConfig struct {
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
	ModelName string `yaml:"model_name"`
	// Timeout bounds each model call, e.g. "120s".
	Timeout string `yaml:"timeout"`
}

// PipelineConfig configures the approval and explanation gates.
type PipelineConfig struct {
	ApprovalRisk string `yaml:"approval_risk"` // low, medium, high
	Explain      bool   `yaml:"explain"`
}

// LoadersConfig points at action manifests. Empty paths are skipped.
type LoadersConfig struct {
	ShellActions   string `yaml:"shell_actions"`
	HTTPActions    string `yaml:"http_actions"`
	SwaggerActions string `yaml:"swagger_actions"`
}

// ExecutionConfig configures shell and HTTP actions.
type ExecutionConfig struct {
	DefaultTimeout string `yaml:"default_timeout"`
	MaxOutput      int    `yaml:"max_output"`
}

// ScriptConfig configures the script orchestrator.
type ScriptConfig struct {
	Dir string `yaml:"dir"`
}

// DetectConfig configures the hallucination detector.
type DetectConfig struct {
	Questions int     `yaml:"questions"`
	Threshold float64 `yaml:"threshold"`
	Scorer    string  `yaml:"scorer"` // lexical, model
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console

	// AuditFile receives one JSON line per action, script line and
	// detection. Empty disables the audit trail.
	AuditFile string `yaml:"audit_file"`
}

// DefaultConfig returns the default configuration. The Vertex settings have
// no defaults and must come from the file or the environment.
func DefaultConfig() *Config {
	return &Config{
		Vertex: VertexConfig{
			Timeout: "120s",
		},

		Pipeline: PipelineConfig{
			ApprovalRisk: "medium",
		},

		Loaders: LoadersConfig{
			ShellActions:   "shell_actions.yaml",
			HTTPActions:    "http_actions.yaml",
			SwaggerActions: "swagger_actions.yaml",
		},

		Execution: ExecutionConfig{
			DefaultTimeout: "60s",
			MaxOutput:      50000,
		},

		Script: ScriptConfig{
			Dir: "scripts",
		},

		Detect: DetectConfig{
			Questions: 4,
			Threshold: 80,
			Scorer:    "lexical",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Vertex.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.Vertex.Location = v
	}
	if v := os.Getenv("T4A_MODEL"); v != "" {
		c.Vertex.ModelName = v
	}
	if v := os.Getenv("T4A_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetModelTimeout returns the per-call model timeout as a duration.
func (c *Config) GetModelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Vertex.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetExecutionTimeout returns the default shell/HTTP action timeout.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetApprovalRisk returns the lowest risk that needs approval. Unparseable
// values fall back to medium.
func (c *Config) GetApprovalRisk() actions.Risk {
	r, err := actions.ParseRisk(c.Pipeline.ApprovalRisk)
	if err != nil {
		return actions.RiskMedium
	}
	return r
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	required := []struct {
		key, value, env string
	}{
		{"vertex.project_id", c.Vertex.ProjectID, "GOOGLE_CLOUD_PROJECT"},
		{"vertex.location", c.Vertex.Location, "GOOGLE_CLOUD_LOCATION"},
		{"vertex.model_name", c.Vertex.ModelName, "T4A_MODEL"},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s (set it in the config file or %s)", ErrMissingSetting, r.key, r.env)
		}
	}

	if _, err := actions.ParseRisk(c.Pipeline.ApprovalRisk); err != nil {
		return fmt.Errorf("pipeline.approval_risk: %w", err)
	}
	if c.Detect.Questions < 1 {
		return fmt.Errorf("detect.questions must be positive, got %d", c.Detect.Questions)
	}
	if c.Detect.Threshold < 0 || c.Detect.Threshold > 100 {
		return fmt.Errorf("detect.threshold must be within [0,100], got %v", c.Detect.Threshold)
	}
	switch c.Detect.Scorer {
	case "", "lexical", "model":
	default:
		return fmt.Errorf("invalid detect.scorer: %s (valid: lexical, model)", c.Detect.Scorer)
	}

	return nil
}
