package acquisition

import (
	"fmt"
	"path/filepath"
	"time"
)

// Session holds the state of one acquisition run
type Session struct {
	ID       string
	Start    time.Time
	Deadline time.Time

	ImageDir       string
	ImageExtension string

	next uint64
}

func newSession(id string, start time.Time, duration time.Duration, imageDir, ext string) *Session {
	return &Session{
		ID:             id,
		Start:          start,
		Deadline:       start.Add(duration),
		ImageDir:       imageDir,
		ImageExtension: ext,
		next:           1,
	}
}

// Next returns the sequence number the next successful iteration records
func (s *Session) Next() uint64 {
	return s.next
}

// Expired reports whether no further iteration may start at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Deadline)
}

// ImagePath returns the image file of the iteration with the given sequence,
// e.g. images/photo_007.jpg
func (s *Session) ImagePath(sequence uint64) string {
	return filepath.Join(s.ImageDir, fmt.Sprintf("photo_%03d.%s", sequence, s.ImageExtension))
}

func (s *Session) advance() {
	s.next++
}
