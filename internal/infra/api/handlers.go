package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/usecase"
)

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Educational Chatbot API",
		"status":  "active",
		"mode":    s.grouping.Mode(),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ---- auth ----

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.auth.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Grade:    req.StudentClass,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(res))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.auth.Login(r.Context(), usecase.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(res))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	writeJSON(w, http.StatusOK, meResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		StudentClass: string(u.Grade),
		Email:        optional(u.Email),
	})
}

// ---- chat ----

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	sessionID, err := model.ParseOptionalID(req.sessionID())
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	projectID, err := model.ParseOptionalID(req.ProjectID)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	reply, err := s.chats.Send(r.Context(), usecase.ChatInput{
		UserID:    currentUser(r).ID,
		SessionID: sessionID,
		ProjectID: projectID,
		Message:   req.Message,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(reply))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	projectID, err := model.ParseOptionalID(strings.TrimSpace(r.URL.Query().Get("project_id")))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	list, err := s.conv.ListSessions(r.Context(), currentUser(r).ID, s.grouping.Filter(projectID))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]sessionSummaryDTO, 0, len(list))
	for _, sum := range list {
		out = append(out, toSummaryDTO(sum))
	}
	writeJSON(w, http.StatusOK, out)
}

// pathID parses {id}; malformed ids are indistinguishable from missing ones.
func pathID(r *http.Request) (model.ID, bool) {
	id, err := model.ParseID(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	sess, err := s.conv.GetSession(r.Context(), id, currentUser(r).ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err := s.conv.DeleteSession(r.Context(), id, currentUser(r).ID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Chat deleted successfully"})
}

// moveSession takes project_id from the JSON body or the query string; absent or null ungroups.
func (s *Server) moveSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	raw := r.URL.Query().Get("project_id")
	if req.ProjectID != nil {
		raw = *req.ProjectID
	}
	projectID, err := model.ParseOptionalID(strings.TrimSpace(raw))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	if err := s.projects.MoveSession(r.Context(), currentUser(r).ID, id, projectID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Chat moved successfully"})
}

// ---- projects ----

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := s.projects.Create(r.Context(), currentUser(r).ID, usecase.ProjectInput{Name: req.Name, Description: req.Description})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]projectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	var req projectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if _, err := s.projects.Update(r.Context(), currentUser(r).ID, id, usecase.ProjectInput{Name: req.Name, Description: req.Description}); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Project updated successfully"})
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	n, err := s.projects.Delete(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Project and associated chats deleted successfully",
		"deleted_sessions": n,
	})
}

func (s *Server) models(w http.ResponseWriter, r *http.Request) {
	list, err := s.chats.ListModels(r.Context())
	if err != nil {
		writeError(w, r, s.log, domain.NewError(domain.ErrUpstream, "Error listing models"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": list})
}
