package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tools4ai/internal/actions"
)

func clearVertexEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "T4A_MODEL", "T4A_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Vertex.ProjectID = "cookgptserver"
	cfg.Vertex.Location = "us-central1"
	cfg.Vertex.ModelName = "gemini-1.5-flash"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "medium", cfg.Pipeline.ApprovalRisk)
	assert.False(t, cfg.Pipeline.Explain)
	assert.Equal(t, "scripts", cfg.Script.Dir)
	assert.Equal(t, 4, cfg.Detect.Questions)
	assert.Equal(t, 80.0, cfg.Detect.Threshold)
	assert.Equal(t, actions.RiskMedium, cfg.GetApprovalRisk())
	assert.Empty(t, cfg.Vertex.ProjectID)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearVertexEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	clearVertexEnv(t)
	path := filepath.Join(t.TempDir(), "t4a.yaml")
	data := `
vertex:
  project_id: cookgptserver
  location: us-central1
  model_name: gemini-1.0-pro
pipeline:
  approval_risk: high
  explain: true
detect:
  threshold: 90
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.0-pro", cfg.Vertex.ModelName)
	assert.Equal(t, actions.RiskHigh, cfg.GetApprovalRisk())
	assert.True(t, cfg.Pipeline.Explain)
	assert.Equal(t, 90.0, cfg.Detect.Threshold)
	assert.Equal(t, 4, cfg.Detect.Questions, "unset keys keep their defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vertex: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "europe-west4")
	t.Setenv("T4A_MODEL", "gemini-2.0-flash")
	t.Setenv("T4A_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-project", cfg.Vertex.ProjectID)
	assert.Equal(t, "europe-west4", cfg.Vertex.Location)
	assert.Equal(t, "gemini-2.0-flash", cfg.Vertex.ModelName)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRequiresVertexSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"project", func(c *Config) { c.Vertex.ProjectID = "" }, "vertex.project_id"},
		{"location", func(c *Config) { c.Vertex.Location = "" }, "vertex.location"},
		{"model", func(c *Config) { c.Vertex.ModelName = "" }, "vertex.model_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrMissingSetting)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.ApprovalRisk = "extreme"
	assert.ErrorIs(t, cfg.Validate(), actions.ErrInvalidRisk)

	cfg = validConfig()
	cfg.Detect.Threshold = 120
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Detect.Questions = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Detect.Scorer = "vibes"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	clearVertexEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "t4a.yaml")

	cfg := validConfig()
	cfg.Loaders.ShellActions = "actions/shell.yaml"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "2m0s", cfg.GetModelTimeout().String())
	assert.Equal(t, "1m0s", cfg.GetExecutionTimeout().String())

	cfg.Vertex.Timeout = "bogus"
	cfg.Execution.DefaultTimeout = "5s"
	assert.Equal(t, "2m0s", cfg.GetModelTimeout().String())
	assert.Equal(t, "5s", cfg.GetExecutionTimeout().String())
}
