package exporter

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tsmathis/Dilatometry-Analyst/internal/dataprocessing"
	"github.com/tsmathis/Dilatometry-Analyst/internal/shared/testutil"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// processedFiles runs the pipeline over synthetic files labelled by labels.
func processedFiles(t *testing.T, labels ...string) []*domain.ProcessedFile {
	t.Helper()
	fs := afero.NewMemMapFs()
	opts := dataprocessing.DefaultOptions()
	opts.RefThickness = 20
	p, err := dataprocessing.NewPipeline(fs, opts, nil, nil)
	require.NoError(t, err)

	out := make([]*domain.ProcessedFile, len(labels))
	for i, label := range labels {
		path := "/in/" + label + ".txt"
		testutil.WriteMeasurement(t, fs, path, testutil.Ramp(4, 5, 0.5), true)
		out[i], err = p.Process(context.Background(), domain.FileMetadata{Label: label, Path: path})
		require.NoError(t, err)
	}
	return out
}
