package config

import (
	stderrors "errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     error
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "yaml overrides defaults",
			file: `
processing:
  ref_thickness: 42.5
  strategy: polynomial
batch:
  workers: 3
  best_effort: true
export:
  format: both
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 42.5, cfg.Processing.RefThickness)
				assert.Equal(t, "polynomial", cfg.Processing.Strategy)
				assert.Equal(t, 3, cfg.Batch.Workers)
				assert.True(t, cfg.Batch.BestEffort)
				assert.Equal(t, "both", cfg.Export.Format)
				assert.Equal(t, DefaultMaxIterations, cfg.Processing.MaxIterations)
			},
		},
		{
			name: "environment overrides yaml",
			file: "processing:\n  ref_thickness: 42.5\n",
			env: map[string]string{
				"DILATOMETRY_PROCESSING_REF_THICKNESS": "7",
				"DILATOMETRY_LOGGING_LEVEL":            "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7.0, cfg.Processing.RefThickness)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "zero thickness is rejected",
			file:    "processing:\n  ref_thickness: 0\n",
			wantErr: apperrors.ErrValue,
		},
		{
			name:    "unknown strategy is rejected",
			env:     map[string]string{"DILATOMETRY_PROCESSING_STRATEGY": "wavelet"},
			wantErr: apperrors.ErrValue,
		},
		{
			name:    "unknown yaml key is rejected",
			file:    "processing:\n  thickness: 3\n",
			wantErr: apperrors.ErrValue,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"DILATOMETRY_BATCH_WORKERS": "many"},
			wantErr: apperrors.ErrValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := afero.NewMemMapFs()
			path := ""
			if tt.file != "" {
				path = "/etc/dilatometry.yaml"
				require.NoError(t, afero.WriteFile(fs, path, []byte(tt.file), 0o644))
			}

			cfg, err := Load(fs, path)
			if tt.wantErr != nil {
				assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	assert.True(t, stderrors.Is(err, apperrors.ErrIO))
}

func TestValidate_NamesYAMLKey(t *testing.T) {
	cfg := Default()
	cfg.Processing.MinContributors = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing.min_contributors")
}

func TestFindConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Empty(t, FindConfigFile(fs))

	require.NoError(t, afero.WriteFile(fs, "configs/dilatometry.yaml", []byte("{}"), 0o644))
	assert.Equal(t, "configs/dilatometry.yaml", FindConfigFile(fs))

	require.NoError(t, afero.WriteFile(fs, "dilatometry.yaml", []byte("{}"), 0o644))
	assert.Equal(t, "dilatometry.yaml", FindConfigFile(fs))
}
