// Package core holds the storage-agnostic domain of a binder: documents,
// change events and the service that validates and brokers them.
package core

import "fmt"

// Metadata represents the flexible key-value pairs associated with a document.
type Metadata map[string]any

// Document is the unit of storage. A card is one document; its attributes live
// in Metadata and its free text (flavor text, rules) in Content.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// EventType represents the type of change in the binder.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the binder.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
