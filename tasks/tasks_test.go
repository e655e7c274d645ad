package tasks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

func TestComputeStats(t *testing.T) {
	list := []tasks.Task{
		{ID: 1, Importance: "High", Completed: true, DueDate: "2026-08-30"},
		{ID: 2, Importance: "High", DueDate: "2026-08-30"},
		{ID: 3, Importance: "Low"},
		{ID: 4, Importance: "Medium"},
	}

	stats := tasks.ComputeStats(list)
	require.Equal(t, 4, stats.TotalTasks)
	require.Equal(t, 1, stats.CompletedTasks)
	require.Equal(t, 3, stats.OpenTasks)
	require.Equal(t, 25.0, stats.CompletionRate)
	require.Equal(t, 2, stats.ImportanceCount["High"])
	require.Len(t, stats.TasksByDate["2026-08-30"], 2)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := tasks.ComputeStats(nil)
	require.Zero(t, stats.TotalTasks)
	require.Zero(t, stats.CompletionRate)
}
