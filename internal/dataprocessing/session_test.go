package dataprocessing

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

func TestSession(t *testing.T) {
	s := NewSession()
	for _, label := range []string{"b", "a", "c"} {
		require.NoError(t, s.Add(&domain.ProcessedFile{FileMetadata: domain.FileMetadata{Label: label}}))
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"b", "a", "c"}, s.Labels())
	files := s.Files()
	require.Len(t, files, 3)
	assert.Equal(t, "a", files[1].Label)

	pf, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", pf.Label)
	_, ok = s.Get("z")
	assert.False(t, ok)

	err := s.Add(&domain.ProcessedFile{FileMetadata: domain.FileMetadata{Label: "a"}})
	assert.True(t, stderrors.Is(err, apperrors.ErrValue))
	assert.True(t, stderrors.Is(s.Add(nil), apperrors.ErrValue))
}
