package core

import (
	"net/textproto"
	"time"
)

// Email represents the content of a single mailbox message
type Email struct {
	ID      string
	From    string
	Subject string
	Body    string
}

// Content renders the email the way it is handed to the classifier
func (e *Email) Content() string {
	return "From: " + e.From + "\nSubject: " + e.Subject + "\n\n" + e.Body
}

// Headers is a multi-valued header set with case-insensitive lookup
type Headers map[string][]string

// Get returns the first value for the named header, or ""
func (h Headers) Get(name string) string {
	vs := h[textproto.CanonicalMIMEHeaderKey(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Add appends a value to the named header
func (h Headers) Add(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	h[key] = append(h[key], value)
}

// Classification represents the result of categorizing an email
type Classification struct {
	Category     string
	Summary      string
	ActionItems  []string
	Confidence   map[string]float64
	ClassifiedAt time.Time
	ModelUsed    string
}

// Action is the retention decision for a classified email
type Action int

const (
	// ActionKeep labels and archives the message
	ActionKeep Action = iota
	// ActionTrash moves the message to trash
	ActionTrash
)

func (a Action) String() string {
	if a == ActionKeep {
		return "keep"
	}
	return "trash"
}

// UnsubscribeMethod identifies how an unsubscribe mechanism is exercised
type UnsubscribeMethod string

// Unsubscribe method constants.
const (
	MethodNone     UnsubscribeMethod = ""
	MethodOneClick UnsubscribeMethod = "one-click"
	MethodHTTP     UnsubscribeMethod = "http"
	MethodMailto   UnsubscribeMethod = "mailto"
	MethodWeb      UnsubscribeMethod = "web"
)

// UnsubscribeInfo describes the best unsubscribe mechanism found for a message
type UnsubscribeInfo struct {
	HasUnsubscribe      bool
	Method              UnsubscribeMethod
	URL                 string
	ListUnsubscribePost string
}

// UnsubscribeResult is the outcome of acting on an UnsubscribeInfo
type UnsubscribeResult struct {
	Success     bool
	MethodUsed  UnsubscribeMethod
	ActionTaken string
	Message     string
}

// RetryEntry queues a message whose classification was throttled
type RetryEntry struct {
	MessageID string
	Subject   string
}

// TriageSummary aggregates the outcome of one pass over the inbox
type TriageSummary struct {
	Fetched               int
	Processed             int
	Kept                  int
	Trashed               int
	SkippedAlreadyLabeled int
	SkippedRateLimited    int
	Errors                int
	CategoryCounts        map[string]int
	UnsubscribeAttempts   int
	StartedAt             time.Time
	FinishedAt            time.Time
}

// NewTriageSummary returns an empty summary ready for counting
func NewTriageSummary() *TriageSummary {
	return &TriageSummary{
		CategoryCounts: make(map[string]int),
		StartedAt:      time.Now(),
	}
}
