package step

import "time"

// Milestone is a human-meaningful lifecycle label recorded when a
// lifecycle-carrying step completes, reported independently of workflow
// mechanics.
type Milestone struct {
	Name    string    `json:"milestone"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
}
