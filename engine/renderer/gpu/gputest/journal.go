// Package gputest provides an in-memory gpu.Device and surface owner for
// exercising the frame loop without a graphics driver.
package gputest

import (
	"fmt"
	"strings"
	"sync"
)

// Journal is the ordered call log shared by a fake device and window.
type Journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *Journal) Record(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

func (j *Journal) Calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

// Len is the number of recorded calls, usable as a starting point for Index.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.calls)
}

// Index returns the position of the first call at or after from that starts
// with prefix, or -1.
func (j *Journal) Index(prefix string, from int) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := from; i < len(j.calls); i++ {
		if strings.HasPrefix(j.calls[i], prefix) {
			return i
		}
	}
	return -1
}

// Count returns how many calls start with prefix.
func (j *Journal) Count(prefix string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, c := range j.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
