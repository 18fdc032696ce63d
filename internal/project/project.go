// Package project provides the in-memory project registry and the
// persistence extension point for project save/load.
package project

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Project is a named editing project owned by a user.
type Project struct {
	// ID is the unique identifier for the project.
	ID string `json:"id"`
	// Name is the user-chosen project name.
	Name string `json:"name"`
	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is set at creation; no operation mutates a project after
	// that, so it tracks CreatedAt until an update path exists.
	UpdatedAt time.Time `json:"updatedAt"`
	// Thumbnail is an optional preview image URL.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// NewID generates a project identifier.
// Format: project-<timestamp>-<random>
// Example: project-1701432000-a1b2c3d4
func NewID() string {
	timestamp := time.Now().Unix()
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("project-%d", timestamp)
	}
	return fmt.Sprintf("project-%d-%s", timestamp, hex.EncodeToString(random))
}
