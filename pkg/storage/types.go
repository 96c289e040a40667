package storage

import (
	"time"

	"github.com/sw33tLie/applinks/pkg/applink"
)

// CachedLink is one row of the app link cache.
type CachedLink struct {
	Key        string
	Link       *applink.AppLink
	ResolvedAt time.Time
}

// Event is a recorded navigation or inbound event.
type Event struct {
	ID         string
	OccurredAt time.Time
	Name       string
	Type       string // app | web | fail, empty for inbound events
	Success    bool

	// Source info
	SourceURL    string
	SourceHost   string
	SourceDomain string

	OutputURL string
	Error     string
}

// EventListOptions controls selection when listing events.
type EventListOptions struct {
	Since  time.Time
	Domain string
	Limit  int
}
