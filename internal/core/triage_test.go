package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeMailbox is an in-memory Mailbox that records mutations.
type fakeMailbox struct {
	ids      []string
	emails   map[string]*Email
	labelIDs map[string][]string
	labels   map[string]string
	headers  map[string]Headers

	trashed  []string
	archived []string
	labeled  map[string][]string
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		emails:   make(map[string]*Email),
		labelIDs: make(map[string][]string),
		labels:   make(map[string]string),
		headers:  make(map[string]Headers),
		labeled:  make(map[string][]string),
	}
}

func (f *fakeMailbox) addMessage(id, from, subject, body string) {
	f.ids = append(f.ids, id)
	f.emails[id] = &Email{ID: id, From: from, Subject: subject, Body: body}
}

func (f *fakeMailbox) ListMessageIDs(_ context.Context, _ string, maxResults int) ([]string, error) {
	if maxResults > 0 && maxResults < len(f.ids) {
		return f.ids[:maxResults], nil
	}
	return f.ids, nil
}

func (f *fakeMailbox) GetSubject(_ context.Context, id string) (string, error) {
	return f.emails[id].Subject, nil
}

func (f *fakeMailbox) GetMessage(_ context.Context, id string) (*Email, error) {
	return f.emails[id], nil
}

func (f *fakeMailbox) GetHeaders(_ context.Context, id string) (Headers, error) {
	if h, ok := f.headers[id]; ok {
		return h, nil
	}
	return Headers{}, nil
}

func (f *fakeMailbox) GetLabelIDs(_ context.Context, id string) ([]string, error) {
	return f.labelIDs[id], nil
}

func (f *fakeMailbox) ListLabels(_ context.Context) (map[string]string, error) {
	return f.labels, nil
}

func (f *fakeMailbox) EnsureLabel(_ context.Context, name string) (string, error) {
	for id, n := range f.labels {
		if n == name {
			return id, nil
		}
	}
	id := "Label_" + name
	f.labels[id] = name
	return id, nil
}

func (f *fakeMailbox) AddLabel(_ context.Context, id, labelID string) error {
	f.labeled[id] = append(f.labeled[id], labelID)
	return nil
}

func (f *fakeMailbox) Archive(_ context.Context, id string) error {
	f.archived = append(f.archived, id)
	return nil
}

func (f *fakeMailbox) Trash(_ context.Context, id string) error {
	f.trashed = append(f.trashed, id)
	return nil
}

// fakeClassifier classifies by looking the subject line up in its table.
// throttleLeft counts how many Classify calls per subject fail throttled
// before one succeeds. errSubjects fail with a permanent error.
type fakeClassifier struct {
	categories   map[string]string
	throttleLeft map[string]int
	errSubjects  map[string]bool
	calls        int
}

func (f *fakeClassifier) subjectOf(content string) string {
	for subject := range f.categories {
		if strings.Contains(content, "Subject: "+subject+"\n") {
			return subject
		}
	}
	return ""
}

func (f *fakeClassifier) Classify(_ context.Context, content string) (*Classification, error) {
	f.calls++
	subject := f.subjectOf(content)
	if f.errSubjects[subject] {
		return nil, errors.New("model exploded")
	}
	if f.throttleLeft[subject] > 0 {
		f.throttleLeft[subject]--
		return nil, NewThrottledError("fake", errors.New("too many requests"))
	}
	return &Classification{Category: f.categories[subject], ModelUsed: "fake"}, nil
}

func (f *fakeClassifier) Summarize(_ context.Context, _ string) (string, error) {
	return "a short summary", nil
}

func (f *fakeClassifier) ExtractActionItems(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (f *fakeClassifier) ConfidenceScores(_ context.Context, _ string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

// fakeUnsubscriber records attempts without touching the network.
type fakeUnsubscriber struct {
	attempted []string
}

func (f *fakeUnsubscriber) ShouldAttempt(category, _ string) bool {
	return category == "Promotions"
}

func (f *fakeUnsubscriber) Attempt(_ context.Context, messageID string, _ Headers, _ string) *UnsubscribeResult {
	f.attempted = append(f.attempted, messageID)
	return &UnsubscribeResult{Success: true, MethodUsed: MethodHTTP, ActionTaken: "automated-unsubscribe"}
}

func newTestService(mailbox *fakeMailbox, classifier *fakeClassifier, unsub Unsubscriber, cfg TriageConfig) (*TriageService, *[]time.Duration) {
	svc := NewTriageService(mailbox, classifier, unsub, nil, zap.NewNop(), cfg)
	var sleeps []time.Duration
	svc.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return svc, &sleeps
}

func defaultConfig() TriageConfig {
	return TriageConfig{
		Query:          "in:inbox",
		RateLimitDelay: time.Second,
		KeepCategories: []string{"Work", "Personal", "Finance", "Travel", "Notes", "Github"},
	}
}

func TestProcessInboxKeepsAndTrashes(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "alice@example.com", "standup notes", "notes body")
	mailbox.addMessage("m2", "spammer@example.com", "you won", "spam body")
	mailbox.addMessage("m3", "github@example.com", "PR review", "pr body")

	classifier := &fakeClassifier{categories: map[string]string{
		"standup notes": "Notes",
		"you won":       "Spam",
		"PR review":     "Github",
	}}

	svc, _ := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	if summary.Fetched != 3 || summary.Processed != 3 {
		t.Errorf("fetched/processed = %d/%d, want 3/3", summary.Fetched, summary.Processed)
	}
	if summary.Kept != 2 {
		t.Errorf("kept = %d, want 2", summary.Kept)
	}
	if summary.Trashed != 1 {
		t.Errorf("trashed = %d, want 1", summary.Trashed)
	}
	if len(mailbox.trashed) != 1 || mailbox.trashed[0] != "m2" {
		t.Errorf("trashed messages = %v, want [m2]", mailbox.trashed)
	}
	if len(mailbox.archived) != 2 {
		t.Errorf("archived messages = %v, want 2 entries", mailbox.archived)
	}
	if got := summary.CategoryCounts["Notes"]; got != 1 {
		t.Errorf("Notes count = %d, want 1", got)
	}
	if got := summary.CategoryCounts["Spam"]; got != 1 {
		t.Errorf("Spam count = %d, want 1", got)
	}
	if len(mailbox.labeled["m1"]) != 1 || mailbox.labels[mailbox.labeled["m1"][0]] != "Notes" {
		t.Errorf("m1 labels = %v, want the Notes label", mailbox.labeled["m1"])
	}
}

func TestProcessInboxSkipsAlreadyLabeled(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "alice@example.com", "standup notes", "body")
	mailbox.labels["Label_1"] = "Notes"
	mailbox.labelIDs["m1"] = []string{"INBOX", "Label_1"}

	classifier := &fakeClassifier{categories: map[string]string{"standup notes": "Notes"}}

	svc, sleeps := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	if classifier.calls != 0 {
		t.Errorf("classifier called %d times for an already-labeled message, want 0", classifier.calls)
	}
	if summary.SkippedAlreadyLabeled != 1 {
		t.Errorf("skipped = %d, want 1", summary.SkippedAlreadyLabeled)
	}
	if summary.Processed != 0 {
		t.Errorf("processed = %d, want 0", summary.Processed)
	}
	if len(*sleeps) != 0 {
		t.Errorf("sleeps = %v, want none on the skip path", *sleeps)
	}
}

func TestProcessInboxSkipsDifferentlyCasedLabel(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "alice@example.com", "standup notes", "body")
	mailbox.labels["Label_1"] = "notes"
	mailbox.labelIDs["m1"] = []string{"Label_1"}

	classifier := &fakeClassifier{categories: map[string]string{"standup notes": "Notes"}}

	svc, _ := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}
	if summary.SkippedAlreadyLabeled != 1 {
		t.Errorf("skipped = %d, want 1", summary.SkippedAlreadyLabeled)
	}
}

func TestProcessInboxRetryBackoffSequence(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "alice@example.com", "fine", "body")
	mailbox.addMessage("m2", "bob@example.com", "throttled", "body")

	classifier := &fakeClassifier{
		categories:   map[string]string{"fine": "Notes", "throttled": "Work"},
		throttleLeft: map[string]int{"throttled": 2},
	}

	svc, sleeps := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	// m1 succeeds and paces, m2 throttles twice then succeeds on the
	// second retry round: 1s pacing, 3s round one, 6s round two.
	want := []time.Duration{1 * time.Second, 3 * time.Second, 6 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2", summary.Processed)
	}
	if summary.SkippedRateLimited != 0 {
		t.Errorf("skipped rate limited = %d, want 0", summary.SkippedRateLimited)
	}
}

func TestProcessInboxExhaustsRetries(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "bob@example.com", "throttled", "body")

	classifier := &fakeClassifier{
		categories:   map[string]string{"throttled": "Work"},
		throttleLeft: map[string]int{"throttled": 10},
	}

	svc, sleeps := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	// Three rounds, delays 3s, 6s, 12s, then the message is left behind.
	want := []time.Duration{3 * time.Second, 6 * time.Second, 12 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
	if summary.SkippedRateLimited != 1 {
		t.Errorf("skipped rate limited = %d, want 1", summary.SkippedRateLimited)
	}
	if summary.Errors != 0 {
		t.Errorf("errors = %d, want 0 for throttled leftovers", summary.Errors)
	}
	if summary.Processed != 0 {
		t.Errorf("processed = %d, want 0", summary.Processed)
	}
}

func TestProcessInboxCountsPermanentErrors(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "alice@example.com", "broken", "body")
	mailbox.addMessage("m2", "bob@example.com", "fine", "body")

	classifier := &fakeClassifier{
		categories:  map[string]string{"broken": "Work", "fine": "Notes"},
		errSubjects: map[string]bool{"broken": true},
	}

	svc, _ := newTestService(mailbox, classifier, nil, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	if summary.Errors != 1 {
		t.Errorf("errors = %d, want 1", summary.Errors)
	}
	if summary.Processed != 1 {
		t.Errorf("processed = %d, want 1", summary.Processed)
	}
}

func TestProcessInboxMaxEmailsCap(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "a@example.com", "one", "body")
	mailbox.addMessage("m2", "b@example.com", "two", "body")
	mailbox.addMessage("m3", "c@example.com", "three", "body")

	classifier := &fakeClassifier{categories: map[string]string{
		"one": "Notes", "two": "Notes", "three": "Notes",
	}}

	cfg := defaultConfig()
	cfg.MaxEmails = 2
	svc, _ := newTestService(mailbox, classifier, nil, cfg)
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}
	if summary.Fetched != 2 || summary.Processed != 2 {
		t.Errorf("fetched/processed = %d/%d, want 2/2", summary.Fetched, summary.Processed)
	}
}

func TestProcessInboxUnsubscribeBeforeRetention(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "noreply@shop.example", "big sale", "buy now")

	classifier := &fakeClassifier{categories: map[string]string{"big sale": "Promotions"}}
	unsub := &fakeUnsubscriber{}

	svc, _ := newTestService(mailbox, classifier, unsub, defaultConfig())
	summary, err := svc.ProcessInbox(context.Background())
	if err != nil {
		t.Fatalf("ProcessInbox() error = %v", err)
	}

	if len(unsub.attempted) != 1 || unsub.attempted[0] != "m1" {
		t.Errorf("unsubscribe attempts = %v, want [m1]", unsub.attempted)
	}
	if summary.UnsubscribeAttempts != 1 {
		t.Errorf("unsubscribe attempt count = %d, want 1", summary.UnsubscribeAttempts)
	}
	// The message is still trashed after the unsubscribe attempt.
	if len(mailbox.trashed) != 1 {
		t.Errorf("trashed = %v, want [m1]", mailbox.trashed)
	}
}
