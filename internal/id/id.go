// Package id provides utilities for generating unique identifiers.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Prefixes for the entity kinds persisted by the daemon.
const (
	ProfilePrefix = "p"
	ChatPrefix    = "c"
	MessagePrefix = "m"
)

// Generate returns a random 8-character hex ID.
func Generate() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:8]
}

// New returns a prefixed identifier such as "c_1b9d6bcd4f2e".
func New(prefix string) string {
	u := uuid.New()
	return prefix + "_" + strings.ReplaceAll(u.String(), "-", "")[:12]
}

// Session returns the agent session identifier used for a chat.
func Session(chatID string) string {
	return "desktop-" + chatID
}
