package api

import (
	"time"

	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/usecase"
)

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	StudentClass string `json:"student_class"`
	Email        string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userDTO struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	StudentClass string  `json:"student_class"`
	Email        *string `json:"email,omitempty"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userDTO   `json:"user"`
}

func toTokenResponse(res *usecase.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresAt:   res.ExpiresAt,
		User: userDTO{
			ID:           res.User.ID.String(),
			Username:     res.User.Username,
			StudentClass: string(res.User.Grade),
		},
	}
}

type meResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	StudentClass string  `json:"student_class"`
	Email        *string `json:"email"`
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectDTO(p *model.Project) projectDTO {
	return projectDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: optional(p.Description),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// chatRequest accepts chat_id and session_id as synonyms.
type chatRequest struct {
	Message   string `json:"message"`
	ChatID    string `json:"chat_id"`
	SessionID string `json:"session_id"`
	ProjectID string `json:"project_id"`
}

func (c chatRequest) sessionID() string {
	if c.ChatID != "" {
		return c.ChatID
	}
	return c.SessionID
}

type chatResponse struct {
	Response  string  `json:"response"`
	ChatID    *string `json:"chat_id"`
	SessionID *string `json:"session_id"`
	Title     string  `json:"title"`
	ProjectID *string `json:"project_id,omitempty"`
	Subject   string  `json:"subject,omitempty"`
	Topic     string  `json:"topic,omitempty"`
}

func toChatResponse(r *usecase.ChatReply) chatResponse {
	id := optional(r.SessionID.String())
	return chatResponse{
		Response:  r.Response,
		ChatID:    id,
		SessionID: id,
		Title:     r.Title,
		ProjectID: optional(r.Grouping.ProjectID.String()),
		Subject:   r.Grouping.Subject,
		Topic:     r.Grouping.Topic,
	}
}

type sessionSummaryDTO struct {
	ID           string    `json:"id"`
	ProjectID    *string   `json:"project_id"`
	Subject      string    `json:"subject,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

func toSummaryDTO(s model.SessionSummary) sessionSummaryDTO {
	return sessionSummaryDTO{
		ID:           s.ID.String(),
		ProjectID:    optional(s.Grouping.ProjectID.String()),
		Subject:      s.Grouping.Subject,
		Topic:        s.Grouping.Topic,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: s.MessageCount,
	}
}

type sessionDTO struct {
	ID        string              `json:"id"`
	ProjectID *string             `json:"project_id"`
	Subject   string              `json:"subject,omitempty"`
	Topic     string              `json:"topic,omitempty"`
	Title     string              `json:"title"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Messages  []model.ChatMessage `json:"messages"`
}

func toSessionDTO(s *model.ChatSession) sessionDTO {
	msgs := s.Messages
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return sessionDTO{
		ID:        s.ID.String(),
		ProjectID: optional(s.Grouping.ProjectID.String()),
		Subject:   s.Grouping.Subject,
		Topic:     s.Grouping.Topic,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  msgs,
	}
}

type moveRequest struct {
	ProjectID *string `json:"project_id"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
