package model

import "fmt"

// Metrics holds the lifetime counters persisted across sessions.
type Metrics struct {
	TotalEmailsProcessed int `json:"totalEmailsProcessed"`
	TotalEntriesCreated  int `json:"totalEntriesCreated"`
	TotalErrors          int `json:"totalErrors"`
	PendingReview        int `json:"pendingReview"`
}

// ErrorRate formats errors as a percentage of entries created.
func (m Metrics) ErrorRate() string {
	if m.TotalEntriesCreated <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(m.TotalErrors)/float64(m.TotalEntriesCreated)*100)
}
