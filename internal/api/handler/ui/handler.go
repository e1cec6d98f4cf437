// Package ui serves the dashboard document and accepts commands from the
// browser shell.
package ui

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/newthinker/stockboard/internal/api/job"
	"github.com/newthinker/stockboard/internal/api/response"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/dispatch"
	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/view"
)

// maxCommandBody bounds a command request body.
const maxCommandBody = 64 << 10

// State is the live view the handlers expose.
type State struct {
	Doc      *view.Document
	Tabs     *view.Tabs
	Notifier *notify.Channel
}

// DocumentView is the JSON form of the whole dashboard.
type DocumentView struct {
	Tab           string                         `json:"tab"`
	Tabs          []string                       `json:"tabs"`
	Regions       map[string]view.RegionSnapshot `json:"regions"`
	Fields        map[string]string              `json:"fields"`
	Notifications []notify.Notification          `json:"notifications"`
}

// Snapshot captures the current document, tab and toasts.
func (s State) Snapshot() DocumentView {
	snap := s.Doc.Snapshot()
	notes := s.Notifier.Active()
	if notes == nil {
		notes = []notify.Notification{}
	}
	return DocumentView{
		Tab:           s.Tabs.Active(),
		Tabs:          s.Tabs.Names(),
		Regions:       snap.Regions,
		Fields:        snap.Fields,
		Notifications: notes,
	}
}

// CommandRequest is the body of POST /ui/commands/{name}.
type CommandRequest struct {
	Args json.RawMessage `json:"args"`
}

// CommandResponse acknowledges an accepted command.
type CommandResponse struct {
	Accepted bool   `json:"accepted"`
	JobID    string `json:"job_id"`
}

// Handler handles the /ui routes.
type Handler struct {
	state  State
	bus    *dispatch.Bus
	jobs   *job.Store
	logger *zap.Logger
}

// NewHandler creates a UI handler.
func NewHandler(state State, bus *dispatch.Bus, jobs *job.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{state: state, bus: bus, jobs: jobs, logger: logger}
}

// Document handles GET /ui/document.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.state.Snapshot())
}

// Command handles POST /ui/commands/{name}. The command runs in the
// background; its outcome reaches the client through the document and the
// job record.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req CommandRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrValidation, err))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WithMessage(core.ErrValidation, "request body must be a JSON object"))
			return
		}
	}

	j := h.jobs.Create(name)
	err = h.bus.Go(name, req.Args, func(runErr error) {
		if ferr := h.jobs.Finish(j.ID, runErr); ferr != nil {
			h.logger.Debug("job evicted before finishing", zap.String("job_id", j.ID))
		}
	})
	if err != nil {
		h.jobs.Delete(j.ID)
		status := response.StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("command rejected", zap.String("command", name), zap.Error(err))
		}
		response.Error(w, status, err)
		return
	}

	response.JSON(w, http.StatusAccepted, CommandResponse{Accepted: true, JobID: j.ID})
}

// Job handles GET /ui/jobs/{id}.
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// Commands handles GET /ui/commands.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.bus.Names())
}

