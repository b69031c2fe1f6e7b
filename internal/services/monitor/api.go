package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/model"
	"github.com/oksi-iot/oksi-engine/internal/state"
)

// ===================== Admin API =====================

// AdminAPI is the monitor's small HTTP surface: the watched user's current
// status and alert list, alert dismissal, and device provisioning passthrough.
// Provisioning only works while this host can reach the device's access
// point, which is why it lives here and not behind the broker.
type AdminAPI struct {
	userID string
	store  state.Store
	esp32  *ESP32Client
}

func NewAdminAPI(userID string, store state.Store, esp32 *ESP32Client) *AdminAPI {
	return &AdminAPI{userID: userID, store: store, esp32: esp32}
}

// Register mounts the admin routes on r.
func (a *AdminAPI) Register(r *mux.Router) {
	r.HandleFunc("/status", a.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/alerts", a.getAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts", a.clearAlerts).Methods(http.MethodDelete)
	r.HandleFunc("/alerts/{id}", a.dismissAlert).Methods(http.MethodDelete)
	r.HandleFunc("/device/configure", a.configureDevice).Methods(http.MethodPost)
	r.HandleFunc("/device/calibrate", a.calibrateDevice).Methods(http.MethodPost)
}

func (a *AdminAPI) getStatus(w http.ResponseWriter, r *http.Request) {
	st, ok, err := a.store.PlantStatus(r.Context(), a.userID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		httpError(w, http.StatusNotFound, errNoStatus)
		return
	}
	writeJSON(w, st)
}

func (a *AdminAPI) getAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := a.store.Alerts(r.Context(), a.userID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	if alerts == nil {
		alerts = []model.AlertEvent{}
	}
	writeJSON(w, alerts)
}

func (a *AdminAPI) clearAlerts(w http.ResponseWriter, r *http.Request) {
	if err := a.store.SetAlerts(r.Context(), a.userID, nil); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) dismissAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	alerts, err := a.store.Alerts(ctx, a.userID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	remaining := model.DismissAlert(alerts, id)
	if len(remaining) == len(alerts) {
		httpError(w, http.StatusNotFound, errNoAlert)
		return
	}
	if err := a.store.SetAlerts(ctx, a.userID, remaining); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) configureDevice(w http.ResponseWriter, r *http.Request) {
	if a.esp32 == nil {
		httpError(w, http.StatusServiceUnavailable, errNoDevice)
		return
	}
	var body struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
		Crop     string `json:"crop"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.esp32.Configure(r.Context(), body.SSID, body.Password, body.Crop); err != nil {
		log.Error().Err(err).Msg("admin: device configure failed")
		httpError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) calibrateDevice(w http.ResponseWriter, r *http.Request) {
	if a.esp32 == nil {
		httpError(w, http.StatusServiceUnavailable, errNoDevice)
		return
	}
	var body struct {
		DistanceFull  float64 `json:"distance_full"`
		DistanceEmpty float64 `json:"distance_empty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.esp32.Calibrate(r.Context(), body.DistanceFull, body.DistanceEmpty); err != nil {
		log.Error().Err(err).Msg("admin: device calibrate failed")
		httpError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --------------------- helpers ---------------------

type apiError string

func (e apiError) Error() string { return string(e) }

const (
	errNoStatus apiError = "no status computed yet"
	errNoAlert  apiError = "alert not found"
	errNoDevice apiError = "device provisioning not configured"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
