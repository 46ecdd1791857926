// Package snapshot is the stored form of one collapsed profile submitted to
// the service.
package snapshot

import (
	"fmt"
	"time"
)

type Snapshot struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle,omitempty"`
	Received time.Time         `json:"received"`
	Stacks   map[string]uint64 `json:"stacks"`
}

// StoragePath returns the object name a snapshot is stored under.
func StoragePath(id string) string {
	return fmt.Sprintf("snapshots/%s", id)
}
