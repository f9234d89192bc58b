package kds

import (
	"encoding/json"
	"io"
	"net/http"

	aqm "github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

// Handler is the HTTP surface the station UI consumes. Every route
// delegates to the session; the handler holds no state of its own.
type Handler struct {
	session *StationSession
	config  *aqm.Config
	logger  aqm.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(session *StationSession, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		session: session,
		config:  config,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/station", func(r chi.Router) {
		r.Get("/board", h.GetBoard)

		r.Get("/alerts", h.ListAlerts)
		r.Patch("/alerts/dismiss-all", h.DismissAllAlerts)
		r.Patch("/alerts/{id}/dismiss", h.DismissAlert)

		r.Patch("/selection/card/prev", h.navigate(func() Selection { return h.session.NavigateCard(-1) }))
		r.Patch("/selection/card/next", h.navigate(func() Selection { return h.session.NavigateCard(1) }))
		r.Patch("/selection/item/prev", h.navigate(func() Selection { return h.session.NavigateItem(-1) }))
		r.Patch("/selection/item/next", h.navigate(func() Selection { return h.session.NavigateItem(1) }))

		r.Patch("/bump", h.BumpItem)
		r.Patch("/bump-all", h.BumpAll)
		r.Patch("/recall", h.Recall)
		r.Patch("/recall/clear", h.ClearRecall)

		r.Post("/keys", h.KeyInput)

		r.Get("/settings/alerts", h.GetAlertSettings)
		r.Patch("/settings/alerts", h.UpdateAlertSettings)
		r.Get("/settings/sounds", h.GetSoundSettings)
		r.Patch("/settings/sounds", h.UpdateSoundSettings)
		r.Post("/settings/sounds/{category}/test", h.TestSound)
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.GetBoard")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.session.Board(), nil)
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.ListAlerts")
	defer finish()

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"alerts": h.session.Alerts(),
	}, nil)
}

func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DismissAlert")
	defer finish()

	alertID := chi.URLParam(r, "id")
	if alertID == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing alert ID")
		return
	}

	h.session.DismissAlert(alertID)
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"alerts": h.session.Alerts(),
	}, nil)
}

func (h *Handler) DismissAllAlerts(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.DismissAllAlerts")
	defer finish()

	h.session.DismissAllAlerts()
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"alerts": h.session.Alerts(),
	}, nil)
}

func (h *Handler) navigate(move func() Selection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w, _, finish := h.tlm.Start(w, r, "Handler.Navigate")
		defer finish()

		aqm.Respond(w, http.StatusOK, map[string]interface{}{
			"selection": move(),
		}, nil)
	}
}

func (h *Handler) BumpItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BumpItem")
	defer finish()

	bumped := h.session.BumpItem(r.Context())
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"bumped":    bumped,
		"selection": h.session.Selection(),
	}, nil)
}

func (h *Handler) BumpAll(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BumpAll")
	defer finish()

	bumped := h.session.BumpAll(r.Context())
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"bumped":    bumped,
		"selection": h.session.Selection(),
	}, nil)
}

func (h *Handler) Recall(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Recall")
	defer finish()

	recalled := h.session.Recall(r.Context())
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"recalled": recalled,
		"recall":   h.session.RecallEntries(),
	}, nil)
}

func (h *Handler) ClearRecall(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.ClearRecall")
	defer finish()

	h.session.ClearRecall()
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"recall": h.session.RecallEntries(),
	}, nil)
}

func (h *Handler) KeyInput(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.KeyInput")
	defer finish()
	log := h.log(r)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		Key     string `json:"key"`
		Editing bool   `json:"editing"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.Key == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing key")
		return
	}

	action, handled := h.session.HandleKey(r.Context(), payload.Key, payload.Editing)
	if handled {
		log.Infof("Key %q handled as %s", payload.Key, action)
	}

	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"handled":   handled,
		"action":    action,
		"selection": h.session.Selection(),
	}, nil)
}

func (h *Handler) GetAlertSettings(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.GetAlertSettings")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.session.AlertSettings(), nil)
}

func (h *Handler) UpdateAlertSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateAlertSettings")
	defer finish()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var patch AlertSettingsPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	aqm.Respond(w, http.StatusOK, h.session.UpdateAlertSettings(patch), nil)
}

func (h *Handler) GetSoundSettings(w http.ResponseWriter, r *http.Request) {
	w, _, finish := h.tlm.Start(w, r, "Handler.GetSoundSettings")
	defer finish()

	aqm.Respond(w, http.StatusOK, h.session.SoundSettings(), nil)
}

func (h *Handler) UpdateSoundSettings(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateSoundSettings")
	defer finish()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var patch SoundSettings
	if err := json.Unmarshal(body, &patch); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	aqm.Respond(w, http.StatusOK, h.session.UpdateSoundSettings(patch), nil)
}

func (h *Handler) TestSound(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TestSound")
	defer finish()

	category := chi.URLParam(r, "category")
	if category == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Missing sound category")
		return
	}

	h.session.TestSound(category)
	aqm.Respond(w, http.StatusOK, map[string]interface{}{
		"played": category,
	}, nil)
}
