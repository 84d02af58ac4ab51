package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/skinerbold/lifeplan/internal/ctxkeys"
	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/skinerbold/lifeplan/internal/service"
)

type ProjectHandler struct {
	projectService    *service.ProjectService
	generationService *service.GenerationService
	reportService     *service.ReportService
}

func NewProjectHandler(
	projectService *service.ProjectService,
	generationService *service.GenerationService,
	reportService *service.ReportService,
) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		generationService: generationService,
		reportService:     reportService,
	}
}

func (h *ProjectHandler) session(w http.ResponseWriter, r *http.Request) *service.ProjectSession {
	session, err := h.projectService.Session(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		slog.Error("failed to open project session", "error", err, "user_id", ctxkeys.UserID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to load project")
		return nil
	}
	return session
}

// Project returns the persisted snapshot for the current identity, the
// read contract of the persistence endpoint. Requires authentication.
func (h *ProjectHandler) Project(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	snapshot := session.Snapshot()
	if snapshot.ID == "" && snapshot.VisionData.Name == "" && snapshot.GeneratedGoals == nil {
		writeJSON(w, http.StatusOK, map[string]any{"project": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"project": snapshot})
}

// SaveProject upserts the full snapshot for the current identity and
// returns the server-assigned id and timestamp.
func (h *ProjectHandler) SaveProject(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var incoming model.Project
	err := json.NewDecoder(r.Body).Decode(&incoming)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.Apply(r.Context(), &incoming)
	// The explicit save endpoint is synchronous: flush the debounce so
	// the response carries the durable id and timestamp.
	session.Flush(r.Context())

	snapshot := session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"project": map[string]any{
			"id":        snapshot.ID,
			"updatedAt": snapshot.UpdatedAt,
		},
	})
}

// State returns the live wizard snapshot, available to anonymous and
// authenticated sessions alike.
func (h *ProjectHandler) State(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *ProjectHandler) SetName(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.SetName(r.Context(), body.Name)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *ProjectHandler) SetVision(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var body struct {
		Category string `json:"category"`
		Value    string `json:"value"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err = session.SetVisionField(r.Context(), body.Category, body.Value)
	if errors.Is(err, service.ErrUnknownCategory) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown category %q", body.Category))
		return
	}

	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *ProjectHandler) Next(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	step, err := session.Next(r.Context())
	if errors.Is(err, service.ErrNameRequired) || errors.Is(err, service.ErrVisionIncomplete) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"currentStep": step})
}

func (h *ProjectHandler) Prev(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"currentStep": session.Prev(r.Context())})
}

// Generate runs one goal generation for the session's vision.
// A non-empty feedback forces regeneration past the cache. No automatic
// retries: a failure comes back as one user-facing message and the
// front end offers the retry.
func (h *ProjectHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	var body struct {
		Feedback string `json:"feedback"`
	}
	if r.ContentLength > 0 {
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	snapshot := session.Snapshot()
	if !snapshot.VisionData.Complete() {
		writeError(w, http.StatusUnprocessableEntity, service.ErrVisionIncomplete.Error())
		return
	}

	goals, err := h.generationService.Generate(r.Context(), snapshot.VisionData, body.Feedback)
	if err != nil {
		status := generationStatus(err)
		slog.Error("goal generation failed", "error", err, "user_id", ctxkeys.UserID(r.Context()))
		writeError(w, status, err.Error())
		return
	}

	session.SetGoals(r.Context(), goals)
	writeJSON(w, http.StatusOK, map[string]any{"generatedGoals": goals})
}

// generationStatus maps the generation error taxonomy onto HTTP
// statuses the front end distinguishes for its retry messaging.
func generationStatus(err error) int {
	var schemaErr *service.SchemaValidationError
	switch {
	case errors.Is(err, service.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrGenerationQuota):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrVisionNameRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrGenerationAuth),
		errors.Is(err, service.ErrGenerationNetwork),
		errors.Is(err, service.ErrMalformedResponse),
		errors.As(err, &schemaErr):
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

// Reset blanks the wizard and erases the durable snapshot, including
// the server record for authenticated users.
func (h *ProjectHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	err := session.Reset(r.Context())
	if err != nil {
		slog.Error("failed to reset project", "error", err, "user_id", ctxkeys.UserID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to reset project")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Export streams the self-contained HTML report as a download.
func (h *ProjectHandler) Export(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}

	snapshot := session.Snapshot()
	report, err := h.reportService.Render(&snapshot)
	if errors.Is(err, service.ErrGoalsNotGenerated) {
		writeError(w, http.StatusConflict, "Generate your goals before exporting the report")
		return
	}
	if err != nil {
		slog.Error("failed to render report", "error", err, "user_id", ctxkeys.UserID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", h.reportService.Filename(snapshot.VisionData.Name)))
	_, err = w.Write(report)
	if err != nil {
		slog.Error("failed to write report", "error", err)
	}
}
