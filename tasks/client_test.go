package tasks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

const (
	testUserID = "user-1"
	testBearer = "access-token-1"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *tasks.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return tasks.NewClient(srv.URL, "anon-key-1")
}

func jsonRows(w http.ResponseWriter, rows any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func TestClient_Save(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/tasks", r.URL.Path)
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.Equal(t, "Bearer "+testBearer, r.Header.Get("Authorization"))

		var task tasks.Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&task))
		require.Equal(t, testUserID, task.UserID)
		require.NotEmpty(t, task.CreatedAt)

		task.ID = 7
		jsonRows(w, []tasks.Task{task})
	})

	saved, err := client.Save(context.Background(), testBearer, testUserID, tasks.Task{
		Description: "write report #urgent",
		DueDate:     "2026-09-01",
		Tags:        []string{"#urgent"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), saved.ID)
	require.Equal(t, "write report #urgent", saved.Description)
}

func TestClient_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "eq."+testUserID, r.URL.Query().Get("user_id"))
		require.Equal(t, "priority_score.desc", r.URL.Query().Get("order"))
		jsonRows(w, []tasks.Task{
			{ID: 1, Description: "a", PriorityScore: 9},
			{ID: 2, Description: "b", PriorityScore: 4},
		})
	})

	list, err := client.List(context.Background(), testBearer, testUserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(1), list[0].ID)
}

func TestClient_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "eq.3", r.URL.Query().Get("id"))
			jsonRows(w, []tasks.Task{{ID: 3, Description: "c"}})
		})

		task, err := client.Get(context.Background(), testBearer, testUserID, 3)
		require.NoError(t, err)
		require.Equal(t, int64(3), task.ID)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			jsonRows(w, []tasks.Task{})
		})

		_, err := client.Get(context.Background(), testBearer, testUserID, 3)
		require.ErrorIs(t, err, tasks.ErrNotFound)
	})
}

func TestClient_Update(t *testing.T) {
	t.Run("sets updated_at", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPatch, r.Method)
			var changes map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&changes))
			require.Equal(t, true, changes["completed"])
			require.NotEmpty(t, changes["updated_at"])
			jsonRows(w, []tasks.Task{{ID: 3}})
		})

		err := client.Update(context.Background(), testBearer, testUserID, 3, map[string]any{"completed": true})
		require.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			jsonRows(w, []tasks.Task{})
		})

		err := client.Update(context.Background(), testBearer, testUserID, 3, map[string]any{"completed": true})
		require.ErrorIs(t, err, tasks.ErrNotFound)
	})
}

func TestClient_ToggleCompletion(t *testing.T) {
	var patched map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jsonRows(w, []tasks.Task{{ID: 3, Completed: true}})
		case http.MethodPatch:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			jsonRows(w, []tasks.Task{{ID: 3, Completed: false}})
		}
	})

	err := client.ToggleCompletion(context.Background(), testBearer, testUserID, 3)
	require.NoError(t, err)
	require.Equal(t, false, patched["completed"])
}

func TestClient_ClearAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		jsonRows(w, []tasks.Task{{ID: 1}, {ID: 2}, {ID: 3}})
	})

	deleted, err := client.ClearAll(context.Background(), testBearer, testUserID)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)
}

func TestClient_GetPreferences(t *testing.T) {
	t.Run("existing row", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			jsonRows(w, []tasks.Preferences{{UserID: testUserID, Theme: "dark"}})
		})

		prefs, err := client.GetPreferences(context.Background(), testBearer, testUserID)
		require.NoError(t, err)
		require.Equal(t, "dark", prefs.Theme)
	})

	t.Run("first use creates defaults", func(t *testing.T) {
		var created bool
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				jsonRows(w, []tasks.Preferences{})
			case http.MethodPost:
				created = true
				var prefs tasks.Preferences
				require.NoError(t, json.NewDecoder(r.Body).Decode(&prefs))
				jsonRows(w, []tasks.Preferences{prefs})
			}
		})

		prefs, err := client.GetPreferences(context.Background(), testBearer, testUserID)
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "default", prefs.Theme)
	})
}

func TestClient_StorageRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.List(context.Background(), testBearer, testUserID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}
