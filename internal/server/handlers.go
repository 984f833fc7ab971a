package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"requira/internal/conversation"
	"requira/internal/models"
	"requira/internal/services"
	"requira/internal/srs"
)

type healthResponse struct {
	Service       string     `json:"service"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body := healthResponse{Service: "requira", Status: string(s.status)}
	if !s.started.IsZero() {
		started := s.started
		body.StartedAt = &started
	}
	s.mu.RUnlock()
	body.UptimeSeconds = int64(s.uptime().Seconds())
	writeJSON(w, http.StatusOK, body)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var form services.SignUpForm
	if err := s.decodeJSON(w, r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.svc.Auth.SignUp(r.Context(), form)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.svc.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.SignOut(r.Context(), session.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.User)
}

type projectListResponse struct {
	Projects []models.Project `json:"projects"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	projects, err := s.svc.Projects.List(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectListResponse{Projects: projects})
}

type createProjectRequest struct {
	ProjectTitle       string `json:"projectTitle"`
	ProjectDescription string `json:"projectDescription"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.svc.Projects.Create(r.Context(), session, req.ProjectTitle, req.ProjectDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	project, err := s.svc.Projects.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type startResponse struct {
	Project *models.Project `json:"project"`
	Warning string          `json:"warning,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	project, err := s.svc.Projects.StartConversation(r.Context(), session, r.PathValue("id"))
	if err != nil {
		// the greeting was produced but not saved
		if errors.Is(err, models.ErrPersistence) && project != nil && len(project.History) > 0 {
			s.logger.Printf("server: %v", err)
			writeJSON(w, http.StatusOK, startResponse{
				Project: project,
				Warning: "The conversation was started but could not be saved.",
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Project: project})
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Project *models.Project          `json:"project"`
	Turn    *conversation.TurnResult `json:"turn"`
	Warning string                   `json:"warning,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, turn, err := s.svc.Projects.SendMessage(r.Context(), session, r.PathValue("id"), req.Text)
	if err != nil {
		// the turn happened but was not saved
		if errors.Is(err, models.ErrPersistence) && turn != nil {
			s.logger.Printf("server: %v", err)
			writeJSON(w, http.StatusOK, messageResponse{
				Project: project,
				Turn:    turn,
				Warning: "Your message was answered but could not be saved.",
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Project: project, Turn: turn})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	project, err := s.svc.Projects.Submit(r.Context(), session, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, ok := models.ParseStatus(req.Status)
	if !ok {
		s.writeError(w, r, models.NewValidationError(fmt.Sprintf("unknown status %q", req.Status)))
		return
	}
	project, err := s.svc.Projects.SetStatus(r.Context(), session, r.PathValue("id"), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func requireAdmin(session *models.Session) error {
	if !session.User.IsAdmin() {
		return fmt.Errorf("%w: admin access required", models.ErrForbidden)
	}
	return nil
}

func (s *Server) handleCritique(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	if err := requireAdmin(session); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.svc.Projects.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, raw, err := s.svc.Critique.Critique(r.Context(), project)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.CritiqueResult{Report: report, Raw: raw})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	if err := requireAdmin(session); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := srs.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.writeError(w, r, models.NewValidationError(err.Error()))
		return
	}
	project, err := s.svc.Projects.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Export.Export(r.Context(), project, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	if result.Stored != nil {
		w.Header().Set("X-Export-Location", result.Stored.Location)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

type namesResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleSuggestNames(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	project, err := s.svc.Projects.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	names, err := s.svc.Naming.Suggest(r.Context(), project)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Projects.SaveSuggestions(r.Context(), project, names); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, namesResponse{Suggestions: names})
}

type adoptNameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAdoptName(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	var req adoptNameRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.svc.Projects.AdoptName(r.Context(), session, r.PathValue("id"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requestSession(w, r)
	if !ok {
		return
	}
	stats, err := s.svc.Projects.Stats(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
