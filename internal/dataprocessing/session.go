package dataprocessing

import (
	apperrors "github.com/tsmathis/Dilatometry-Analyst/internal/errors"
	"github.com/tsmathis/Dilatometry-Analyst/pkg/contracts/domain"
)

// Session is an ordered collection of processed files keyed by label.
// It is not safe for concurrent mutation.
type Session struct {
	labels []string
	files  map[string]*domain.ProcessedFile
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{files: make(map[string]*domain.ProcessedFile)}
}

// Add appends pf; labels must be unique within a session.
func (s *Session) Add(pf *domain.ProcessedFile) error {
	if pf == nil {
		return apperrors.NewValueError("session", "cannot add a nil file")
	}
	if _, dup := s.files[pf.Label]; dup {
		return apperrors.NewValueError("session", "duplicate file label %q", pf.Label)
	}
	s.labels = append(s.labels, pf.Label)
	s.files[pf.Label] = pf
	return nil
}

// Get returns the file stored under label
func (s *Session) Get(label string) (*domain.ProcessedFile, bool) {
	pf, ok := s.files[label]
	return pf, ok
}

// Labels returns the labels in insertion order
func (s *Session) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Files returns the files in insertion order
func (s *Session) Files() []*domain.ProcessedFile {
	out := make([]*domain.ProcessedFile, len(s.labels))
	for i, l := range s.labels {
		out[i] = s.files[l]
	}
	return out
}

// Len returns the number of files
func (s *Session) Len() int { return len(s.labels) }
