package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

type createTaskRequest struct {
	Description string   `json:"description"`
	DueDate     string   `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := decodeJSON(r, &req); err != nil || req.Description == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session := sessionFromContext(r.Context())
		task, err := s.tasks.Save(r.Context(), session.AccessToken, session.UserID, tasks.Task{
			Description: req.Description,
			DueDate:     req.DueDate,
			Tags:        req.Tags,
		})
		if err != nil {
			log.Error().Err(err).Msg("create task")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusCreated, task)
	}
}

func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		list, err := s.tasks.List(r.Context(), session.AccessToken, session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("list tasks")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := taskIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}
		session := sessionFromContext(r.Context())
		task, err := s.tasks.Get(r.Context(), session.AccessToken, session.UserID, taskID)
		if errors.Is(err, tasks.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("get task")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

func (s *Server) UpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := taskIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}
		var changes map[string]any
		if err := decodeJSON(r, &changes); err != nil || len(changes) == 0 {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session := sessionFromContext(r.Context())
		if err := s.tasks.Update(r.Context(), session.AccessToken, session.UserID, taskID, changes); err != nil {
			log.Error().Err(err).Msg("update task")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := taskIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}
		session := sessionFromContext(r.Context())
		if err := s.tasks.Delete(r.Context(), session.AccessToken, session.UserID, taskID); err != nil {
			log.Error().Err(err).Msg("delete task")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (s *Server) ToggleTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := taskIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}
		session := sessionFromContext(r.Context())
		err = s.tasks.ToggleCompletion(r.Context(), session.AccessToken, session.UserID, taskID)
		if errors.Is(err, tasks.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("toggle task")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
	}
}

func (s *Server) ClearTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		deleted, err := s.tasks.ClearAll(r.Context(), session.AccessToken, session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("clear tasks")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}

type prioritizeRequest struct {
	Input string `json:"input"`
}

// PrioritizeHandler reorders the user's open tasks. The remote scorer is
// consulted first; when it is unavailable the local heuristic takes over.
// Fresh scores are persisted so the stored order matches what is returned.
func (s *Server) PrioritizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req prioritizeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session := sessionFromContext(r.Context())
		list, err := s.tasks.List(r.Context(), session.AccessToken, session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("prioritize: list tasks")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		result := s.prioritizer.Prioritize(r.Context(), req.Input, list)
		for _, task := range result.Tasks {
			if task.ID == 0 {
				continue
			}
			changes := map[string]any{
				"priority_score": task.PriorityScore,
				"importance":     task.Importance,
			}
			if err := s.tasks.Update(r.Context(), session.AccessToken, session.UserID, task.ID, changes); err != nil {
				log.Warn().Err(err).Int64("task_id", task.ID).Msg("prioritize: persist score")
			}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		stats, err := s.tasks.Stats(r.Context(), session.AccessToken, session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("task stats")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) GetPreferencesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		prefs, err := s.tasks.GetPreferences(r.Context(), session.AccessToken, session.UserID)
		if err != nil {
			log.Error().Err(err).Msg("get preferences")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

func (s *Server) UpdatePreferencesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var prefs tasks.Preferences
		if err := decodeJSON(r, &prefs); err != nil || prefs.Theme == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session := sessionFromContext(r.Context())
		if err := s.tasks.UpdatePreferences(r.Context(), session.AccessToken, session.UserID, prefs); err != nil {
			log.Error().Err(err).Msg("update preferences")
			writeError(w, http.StatusBadGateway, "task storage unavailable")
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

func taskIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
