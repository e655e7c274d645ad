// Package tasks is the client for the externally managed task storage
// (PostgREST-shaped REST over the tasks and user_preferences tables). All
// operations are scoped to one user and authorized by the session's bearer
// token.
package tasks

import "time"

// Task is one prioritized to-do item.
type Task struct {
	ID            int64    `json:"id,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	Description   string   `json:"description"`
	DueDate       string   `json:"due_date,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Importance    string   `json:"importance,omitempty"`
	PriorityScore float64  `json:"priority_score"`
	Completed     bool     `json:"completed"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

// Preferences holds per-user UI settings.
type Preferences struct {
	UserID    string `json:"user_id,omitempty"`
	Theme     string `json:"theme"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Stats summarizes a user's tasks for the analytics view.
type Stats struct {
	TotalTasks      int               `json:"total_tasks"`
	CompletedTasks  int               `json:"completed_tasks"`
	OpenTasks       int               `json:"open_tasks"`
	CompletionRate  float64           `json:"completion_rate"`
	ImportanceCount map[string]int    `json:"importance_counts"`
	TasksByDate     map[string][]Task `json:"tasks_by_date"`
}

// ComputeStats derives Stats from a task list.
func ComputeStats(list []Task) Stats {
	stats := Stats{
		ImportanceCount: map[string]int{"High": 0, "Medium": 0, "Low": 0},
		TasksByDate:     make(map[string][]Task),
	}
	for _, t := range list {
		stats.TotalTasks++
		if t.Completed {
			stats.CompletedTasks++
		}
		if _, ok := stats.ImportanceCount[t.Importance]; ok {
			stats.ImportanceCount[t.Importance]++
		}
		if t.DueDate != "" {
			stats.TasksByDate[t.DueDate] = append(stats.TasksByDate[t.DueDate], t)
		}
	}
	stats.OpenTasks = stats.TotalTasks - stats.CompletedTasks
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}
	return stats
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
