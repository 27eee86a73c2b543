// Package prompts holds the prompt templates and response parsers shared
// by every classifier provider adapter.
package prompts

import (
	"fmt"
	"strconv"
	"strings"
)

// System role lines for each operation.
const (
	CategorizeSystem  = "You are an email categorization assistant."
	SummarizeSystem   = "You are a helpful email summarization assistant."
	ActionItemsSystem = "You are an assistant that extracts action items from emails."
	ConfidenceSystem  = "You are an email analysis assistant."
)

// Categorize builds the categorization prompt over the configured
// category names
func Categorize(categories []string, content string) string {
	return fmt.Sprintf(
		"Categorize this email into one of these categories: %s\n\nEmail: %s\n\nRespond with just the category name.",
		strings.Join(categories, ", "), content)
}

// Summarize builds the summarization prompt
func Summarize(content string) string {
	return fmt.Sprintf("Summarize this email in 2-3 sentences:\n\n%s", content)
}

// ActionItems builds the action-item extraction prompt
func ActionItems(content string) string {
	return fmt.Sprintf(
		"Extract any action items or tasks from this email. List them as bullet points. If there are no action items, respond with 'None'.\n\nEmail: %s",
		content)
}

// Confidence builds the per-category confidence prompt
func Confidence(categories []string, content string) string {
	return fmt.Sprintf(
		"Rate the confidence (0-100%%) that this email belongs to each category: %s\n\nEmail: %s\n\nRespond in format: CategoryName: XX%%",
		strings.Join(categories, ", "), content)
}

// ParseActionItems turns the model's bullet list into plain strings. The
// literal answer "None" (any case) means no items.
func ParseActionItems(response string) []string {
	response = strings.TrimSpace(response)
	if response == "" || strings.EqualFold(response, "none") {
		return nil
	}
	var items []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•* ")
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// ParseConfidence reads "CategoryName: XX%" lines into a [0,1] score map.
// Unparseable lines are dropped.
func ParseConfidence(response string) map[string]float64 {
	scores := make(map[string]float64)
	for _, line := range strings.Split(response, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSuffix(strings.TrimSpace(value), "%")
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		scores[name] = score / 100.0
	}
	return scores
}
