package restserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/metrics"
	"github.com/chrissnell/wellmrc/internal/selection"
	"github.com/chrissnell/wellmrc/internal/session"
	"github.com/chrissnell/wellmrc/internal/store"
	"github.com/chrissnell/wellmrc/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	logger     *zap.SugaredLogger
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		logger:     ctrl.logger,
	}
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data, nil); err != nil {
		h.logger.Errorf("error writing response: %v", err)
	}
}

// decode reads a required request body
func (h *Handlers) decode(req *http.Request, v any) error {
	if err := h.formatter.DecodeRequest(req, v); err != nil {
		return badRequestf("could not decode request: %v", err)
	}
	return nil
}

// decodeOptional reads a request body that may be absent
func (h *Handlers) decodeOptional(req *http.Request, v any) error {
	err := h.formatter.DecodeRequest(req, v)
	if err == nil || errors.Is(err, responseformat.ErrEmptyBody) {
		return nil
	}
	return badRequestf("could not decode request: %v", err)
}

// fitter builds a fitter from the configured analysis options with the
// request's mode and norm overrides applied
func (h *Handlers) fitter(mode, norm string) (*hydro.Fitter, error) {
	opts, err := h.controller.analysis.FitOptions()
	if err != nil {
		return nil, err
	}
	if mode != "" {
		if opts.Mode, err = hydro.ParseMode(mode); err != nil {
			return nil, badRequestf("%v", err)
		}
	}
	if norm != "" {
		if opts.Norm, err = hydro.ParseNorm(norm); err != nil {
			return nil, badRequestf("%v", err)
		}
	}
	return hydro.NewFitter(opts, h.logger.Named("fitter")), nil
}

// runFit fits and records the attempt in the metrics
func (h *Handlers) runFit(fit func() (*hydro.RecessionModel, error)) (*hydro.RecessionModel, error) {
	start := time.Now()
	model, err := fit()

	result := metrics.ResultOK
	outer := 0
	switch {
	case err == nil:
		outer = model.OuterIterations
	case hydro.IsInputError(err):
		result = metrics.ResultInput
	case hydro.IsConvergenceError(err):
		result = metrics.ResultConvergence
	case hydro.IsCancelled(err):
		result = metrics.ResultCancelled
	default:
		result = metrics.ResultError
	}
	h.controller.Metrics.ObserveFit(result, time.Since(start), outer)
	return model, err
}

func (h *Handlers) deltan(requested int) (int, error) {
	switch {
	case requested == 0:
		return h.controller.analysis.Deltan, nil
	case requested < 0:
		return 0, badRequestf("deltan must be positive, got %d", requested)
	}
	return requested, nil
}

// FindExtrema handles POST /api/extrema
func (h *Handlers) FindExtrema(w http.ResponseWriter, req *http.Request) {
	var body ExtremaRequest
	if err := h.decode(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	deltan, err := h.deltan(body.Deltan)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	level, err := hydro.Despike(body.Level, body.Despike)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	extrema, added, err := hydro.FindExtrema(req.Context(), level, deltan)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.controller.Metrics.DetectionsTotal.Inc()

	h.respond(w, req, http.StatusOK, ExtremaResponse{
		Extrema: transformExtrema(extrema),
		Added:   nonNil(added),
	})
}

// Fit handles POST /api/fit
func (h *Handlers) Fit(w http.ResponseWriter, req *http.Request) {
	var body FitRequest
	if err := h.decode(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	if len(body.Peaks) > 0 && len(body.Periods) > 0 {
		h.writeError(w, req, badRequestf("give either peaks or periods, not both"))
		return
	}

	fitter, err := h.fitter(body.Mode, body.Norm)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	series := hydro.Series{Time: body.Time, Level: body.Level}
	if err := series.Validate(); err != nil {
		h.writeError(w, req, err)
		return
	}

	peaks := body.Peaks
	if len(body.Periods) > 0 {
		if peaks, err = hydro.PeaksFromPeriods(series.Time, body.Periods); err != nil {
			h.writeError(w, req, err)
			return
		}
	}

	model, err := h.runFit(func() (*hydro.RecessionModel, error) {
		return fitter.Fit(req.Context(), series.Time, series.Level, peaks)
	})
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	h.respond(w, req, http.StatusOK, transformModel(model, peaks))
}

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, req *http.Request) {
	var body CreateSessionRequest
	if err := h.decode(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	if body.Well == "" {
		h.writeError(w, req, badRequestf("well is required"))
		return
	}

	s, err := h.controller.Sessions.Create(body.Well, hydro.Series{Time: body.Time, Level: body.Level})
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.controller.Metrics.SessionsActive.Set(float64(h.controller.Sessions.Len()))
	h.logger.Debugw("opened session", "id", s.ID, "well", s.Well, "samples", s.Series().Len())

	h.respond(w, req, http.StatusCreated, s.Snapshot())
}

// session looks up the {id} path variable
func (h *Handlers) session(req *http.Request) (*session.Session, error) {
	return h.controller.Sessions.Get(mux.Vars(req)["id"])
}

// GetSession handles GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, s.Snapshot())
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *Handlers) DeleteSession(w http.ResponseWriter, req *http.Request) {
	if err := h.controller.Sessions.Delete(mux.Vars(req)["id"]); err != nil {
		h.writeError(w, req, err)
		return
	}
	h.controller.Metrics.SessionsActive.Set(float64(h.controller.Sessions.Len()))
	w.WriteHeader(http.StatusNoContent)
}

// DetectSession handles POST /api/sessions/{id}/detect
func (h *Handlers) DetectSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body DetectRequest
	if err := h.decodeOptional(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	deltan, err := h.deltan(body.Deltan)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	extrema, added, snap, err := s.Detect(req.Context(), deltan, body.Despike)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.controller.Metrics.DetectionsTotal.Inc()

	h.respond(w, req, http.StatusOK, DetectResponse{
		Session: snap,
		Extrema: transformExtrema(extrema),
		Added:   nonNil(added),
	})
}

// SetSessionMode handles POST /api/sessions/{id}/mode
func (h *Handlers) SetSessionMode(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body ModeRequest
	if err := h.decode(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, s.Toggle(body.Mode))
}

// PressSession handles POST /api/sessions/{id}/press
func (h *Handlers) PressSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body PressRequest
	if err := h.decode(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}

	var proj selection.Projector
	if body.Axes != nil {
		a := *body.Axes
		if a.Width <= 0 || a.Height <= 0 || a.XMax == a.XMin || a.YMax == a.YMin {
			h.writeError(w, req, badRequestf("axes must have a positive size and a non-empty data window"))
			return
		}
		proj = a
	}

	snap, changed := s.Press(selection.Press{X: body.X, Y: body.Y, DataX: body.DataX}, proj)
	h.respond(w, req, http.StatusOK, EditResponse{Session: snap, Changed: changed})
}

// UndoSession handles POST /api/sessions/{id}/undo
func (h *Handlers) UndoSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	snap, changed := s.Undo()
	h.respond(w, req, http.StatusOK, EditResponse{Session: snap, Changed: changed})
}

// ClearSession handles POST /api/sessions/{id}/clear
func (h *Handlers) ClearSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	snap, changed := s.Clear()
	h.respond(w, req, http.StatusOK, EditResponse{Session: snap, Changed: changed})
}

// FitSession handles POST /api/sessions/{id}/fit. The result is stored when a
// result store is configured.
func (h *Handlers) FitSession(w http.ResponseWriter, req *http.Request) {
	s, err := h.session(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body SessionFitRequest
	if err := h.decodeOptional(req, &body); err != nil {
		h.writeError(w, req, err)
		return
	}
	fitter, err := h.fitter(body.Mode, body.Norm)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	var peaks []int
	model, err := h.runFit(func() (*hydro.RecessionModel, error) {
		var m *hydro.RecessionModel
		var ferr error
		m, peaks, ferr = s.Fit(req.Context(), fitter)
		return m, ferr
	})
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	resp := transformModel(model, peaks)
	resp.Well = s.Well

	if fits := h.controller.Fits; fits != nil {
		rec := store.NewFitRecord(s.Well, peaks, model)
		// The client may already be gone; the fit is still worth keeping.
		if err := fits.SaveFit(context.WithoutCancel(req.Context()), rec); err != nil {
			h.writeError(w, req, err)
			return
		}
		resp.ID = rec.ID
	}

	h.respond(w, req, http.StatusOK, resp)
}

// ListWellFits handles GET /api/wells/{well}/fits
func (h *Handlers) ListWellFits(w http.ResponseWriter, req *http.Request) {
	fits := h.controller.Fits
	if fits == nil {
		h.writeError(w, req, errNoStore)
		return
	}
	records, err := fits.ListFits(req.Context(), mux.Vars(req)["well"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if records == nil {
		records = []*store.FitRecord{}
	}
	h.respond(w, req, http.StatusOK, records)
}

// GetFit handles GET /api/fits/{id}
func (h *Handlers) GetFit(w http.ResponseWriter, req *http.Request) {
	fits := h.controller.Fits
	if fits == nil {
		h.writeError(w, req, errNoStore)
		return
	}
	rec, err := fits.GetFit(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, StoredFitResponse{
		FitRecord: rec,
		Predicted: responseformat.Curve(rec.Predicted),
	})
}
