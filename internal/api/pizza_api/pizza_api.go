package pizza_api

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/PizzaTrack/internal/cache"
	"github.com/BearBump/PizzaTrack/internal/display"
	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/BearBump/PizzaTrack/internal/services/tracking"
	"github.com/BearBump/PizzaTrack/internal/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NoDevicesMessage is the empty state of the device list.
const NoDevicesMessage = "No devices found."

type Deps struct {
	Orders   *tracking.Manager
	Board    *display.Board
	Settings *settings.Service
	Cloud    cloud.Client

	// DeviceCache holds the last device listing per token. Optional.
	DeviceCache    cache.BytesCache
	DeviceCacheTTL time.Duration

	// Live serves the websocket endpoint. Optional.
	Live http.Handler

	SwaggerPath     string
	OrdersPerMinute int
}

type API struct {
	d Deps
}

func New(d Deps) *API {
	if d.DeviceCacheTTL <= 0 {
		d.DeviceCacheTTL = 30 * time.Second
	}
	if d.OrdersPerMinute <= 0 {
		d.OrdersPerMinute = 30
	}
	return &API{d: d}
}

type errorResponse struct {
	Error string `json:"error"`
}

type devicesResponse struct {
	Devices []models.Device `json:"devices"`
	Message string          `json:"message,omitempty"`
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

type deviceRequest struct {
	DeviceID string `json:"deviceId"`
}

type landmarksRequest struct {
	Destination   models.Position `json:"destination"`
	PartnerOffice models.Position `json:"partner_office"`
}

type orderResponse struct {
	Order models.Order `json:"order"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

// Routes builds the router: JSON API, websocket, metrics and docs.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	if a.d.Live != nil {
		r.Handle("/ws", a.d.Live)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", a.getMenu)
		r.Get("/state", a.getState)
		r.Get("/devices", a.getDevices)

		r.With(httprate.Limit(
			a.d.OrdersPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limit_exceeded"})
			}),
		)).Post("/orders", a.postOrder)
		r.Get("/orders/current", a.getCurrentOrder)

		r.Post("/poll/trigger", a.postTrigger)
		r.Get("/stats", a.getStats)

		r.Get("/settings", a.getSettings)
		r.Put("/settings/api-key", a.putAPIKey)
		r.Put("/settings/device", a.putDevice)
		r.Put("/settings/landmarks", a.putLandmarks)
	})

	if a.d.SwaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, a.d.SwaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(a.d.SwaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	return r
}

func (a *API) getMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pizzas": a.d.Orders.Menu()})
}

func (a *API) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.d.Board.Snapshot())
}

func (a *API) postOrder(w http.ResponseWriter, r *http.Request) {
	var req tracking.OrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := a.d.Orders.PlaceOrder(r.Context(), req)
	switch {
	case errors.Is(err, tracking.ErrNoPizza):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, cloud.ErrNoDevices):
		writeJSON(w, http.StatusConflict, errorResponse{Error: NoDevicesMessage})
		return
	case err != nil:
		slog.Error("place order", "pizza", req.Pizza, "error", err.Error())
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Order: sess.Order})
}

func (a *API) getCurrentOrder(w http.ResponseWriter, r *http.Request) {
	sess := a.d.Orders.Current()
	if sess == nil || sess.Closed() {
		writeError(w, http.StatusNotFound, tracking.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: sess.Order})
}

func (a *API) postTrigger(w http.ResponseWriter, r *http.Request) {
	if err := a.d.Orders.TriggerPoll(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"triggered": true})
}

func (a *API) getStats(w http.ResponseWriter, r *http.Request) {
	sess := a.d.Orders.Current()
	if sess == nil {
		writeError(w, http.StatusNotFound, tracking.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, sess.PollerStats())
}

// getDevices never fails: an empty account or a failed listing both show the
// empty state.
func (a *API) getDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.listDevices(r.Context(), false))
}

func (a *API) listDevices(ctx context.Context, fresh bool) devicesResponse {
	key, err := a.deviceCacheKey(ctx)
	if err == nil && !fresh && a.d.DeviceCache != nil {
		if b, ok, cerr := a.d.DeviceCache.Get(ctx, key); cerr == nil && ok {
			var cached []models.Device
			if json.Unmarshal(b, &cached) == nil && len(cached) > 0 {
				return devicesResponse{Devices: cached}
			}
		}
	}

	devices, err := a.d.Cloud.ListDevices(ctx)
	if err != nil || len(devices) == 0 {
		if err != nil && !errors.Is(err, cloud.ErrNoDevices) {
			slog.Warn("list devices", "error", err.Error())
		}
		return devicesResponse{Devices: []models.Device{}, Message: NoDevicesMessage}
	}

	if a.d.DeviceCache != nil && key != "" {
		if b, err := json.Marshal(devices); err == nil {
			_ = a.d.DeviceCache.Set(ctx, key, b, a.d.DeviceCacheTTL)
		}
	}
	return devicesResponse{Devices: devices}
}

// deviceCacheKey scopes the cached listing to the current token.
func (a *API) deviceCacheKey(ctx context.Context) (string, error) {
	token, err := a.d.Settings.APIToken(ctx)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return fmt.Sprintf("devices:%x", h.Sum64()), nil
}

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	v, err := a.d.Settings.View(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// putAPIKey stores the token and answers with a fresh device listing.
func (a *API) putAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.d.Settings.SetAPIToken(r.Context(), req.APIKey); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a.listDevices(r.Context(), true))
}

func (a *API) putDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.d.Settings.SetDeviceID(r.Context(), req.DeviceID); err != nil {
		writeError(w, settingsStatus(err), err)
		return
	}
	a.getSettings(w, r)
}

func (a *API) putLandmarks(w http.ResponseWriter, r *http.Request) {
	var req landmarksRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.d.Settings.SetLandmarks(r.Context(), req.Destination, req.PartnerOffice); err != nil {
		writeError(w, settingsStatus(err), err)
		return
	}
	a.d.Board.SetLandmarks(req.Destination, req.PartnerOffice)
	a.getSettings(w, r)
}

func settingsStatus(err error) int {
	if errors.Is(err, settings.ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
