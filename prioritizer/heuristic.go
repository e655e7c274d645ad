// Package prioritizer assigns importance and a 1-10 priority score to tasks,
// preferring the remote LLM scoring endpoint and falling back to a local
// heuristic when it is unreachable.
package prioritizer

import (
	"strings"
	"time"

	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

const dateLayout = "2006-01-02"

var urgentKeywords = []string{"urgent", "asap", "immediately", "critical", "today"}

// ScoreHeuristically fills in Importance and PriorityScore for each task
// from due-date proximity, tags, and description keywords. Deterministic for
// a fixed now.
func ScoreHeuristically(list []tasks.Task, now time.Time) []tasks.Task {
	scored := make([]tasks.Task, len(list))
	for i, t := range list {
		score := 5.0
		score += dueDateWeight(t.DueDate, now)
		score += tagWeight(t.Tags)
		score += keywordWeight(t.Description)

		if score > 10 {
			score = 10
		}
		if score < 1 {
			score = 1
		}

		t.PriorityScore = score
		t.Importance = importanceFor(score)
		scored[i] = t
	}
	return scored
}

func dueDateWeight(due string, now time.Time) float64 {
	if due == "" {
		return 0
	}
	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return 0
	}
	days := int(d.Sub(now.Truncate(24*time.Hour)).Hours() / 24)
	switch {
	case days < 0:
		return 3 // overdue
	case days <= 1:
		return 2.5
	case days <= 3:
		return 2
	case days <= 7:
		return 1
	}
	return 0
}

func tagWeight(tags []string) float64 {
	var w float64
	for _, tag := range tags {
		switch strings.ToLower(strings.TrimPrefix(tag, "#")) {
		case "urgent":
			w += 2
		case "important":
			w += 1.5
		}
	}
	return w
}

func keywordWeight(description string) float64 {
	lower := strings.ToLower(description)
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return 1.5
		}
	}
	if strings.Contains(lower, "important") {
		return 1
	}
	return 0
}

func importanceFor(score float64) string {
	switch {
	case score >= 7.5:
		return "High"
	case score >= 4.5:
		return "Medium"
	}
	return "Low"
}
