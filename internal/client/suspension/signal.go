package suspension

import (
	"fmt"
	"time"
)

// Signal is returned by an operation whose response asked the client to
// back off. It never escapes Do.
type Signal struct {
	StatusCode int
	Duration   time.Duration
}

func (s *Signal) Error() string {
	return fmt.Sprintf("server suspension (status %d) for %s", s.StatusCode, s.Duration)
}
