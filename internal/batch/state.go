package batch

import (
	"sync"
	"time"
)

// FileStatus represents the current status of a file in a batch
type FileStatus string

const (
	FileStatusPending   FileStatus = "pending"
	FileStatusActive    FileStatus = "active"
	FileStatusCompleted FileStatus = "completed"
	FileStatusFailed    FileStatus = "failed"
	FileStatusSkipped   FileStatus = "skipped"
)

// FileState represents the runtime state of one file in a batch
type FileState struct {
	mu        sync.RWMutex
	Index     int        `json:"index"`
	Label     string     `json:"label"`
	Path      string     `json:"path"`
	Status    FileStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     error      `json:"-"`
}

// NewFileState creates a pending file state
func NewFileState(index int, label, path string) *FileState {
	return &FileState{
		Index:  index,
		Label:  label,
		Path:   path,
		Status: FileStatusPending,
	}
}

// Start marks the file as being processed
func (s *FileState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = FileStatusActive
}

// Complete marks the file as processed
func (s *FileState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = FileStatusCompleted
}

// Fail marks the file as failed
func (s *FileState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = FileStatusFailed
	s.Error = err
}

// Skip marks the file as not processed
func (s *FileState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = FileStatusSkipped
	s.Message = reason
}

// CurrentStatus returns the status under lock
func (s *FileState) CurrentStatus() FileStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the file took, or zero if it never finished
func (s *FileState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}
