package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"air-purifier-bridge/internal/domain/model"
	"air-purifier-bridge/internal/domain/service"
	"air-purifier-bridge/internal/ports"
	"github.com/amimof/huego"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	lightType        = "On/Off plug-in unit"
	lightModelID     = "LOM001"
	manufacturerName = "Philips"
)

type Server struct {
	bridge ports.BridgePort
	ip     string
	port   int
	logger *slog.Logger
}

func NewServer(bridge ports.BridgePort, ip string, port int, logger *slog.Logger) *Server {
	return &Server{
		bridge: bridge,
		ip:     ip,
		port:   port,
		logger: logger.With("component", "http"),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(20 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/description.xml", s.handleDescription)

	r.Route("/api", func(api chi.Router) {
		api.Post("/", s.handleRegister)
		api.Get("/{user}", s.handleFullState)
		api.Get("/{user}/lights", s.handleGetLights)
		api.Get("/{user}/lights/{id}", s.handleGetLight)
		api.Put("/{user}/lights/{id}/state", s.handleSetLightState)
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Get("/config", s.handleConfig)
		admin.Post("/entries", s.handleAddEntry)
		admin.Delete("/entries/{id}", s.handleRemoveEntry)
		admin.Get("/switches", s.handleSwitches)
		admin.Post("/refresh", s.handleRefresh)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" ?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion>
<major>1</major>
<minor>0</minor>
</specVersion>
<URLBase>http://%s:%d/</URLBase>
<device>
<deviceType>urn:schemas-upnp-org:device:Basic:1</deviceType>
<friendlyName>Air purifier bridge (%s)</friendlyName>
<manufacturer>Royal Philips Electronics</manufacturer>
<manufacturerURL>http://www.philips.com</manufacturerURL>
<modelDescription>Philips hue Personal Wireless Lighting</modelDescription>
<modelName>Philips hue bridge 2012</modelName>
<modelNumber>929000226503</modelNumber>
<modelURL>http://www.meethue.com</modelURL>
<serialNumber>001788102201</serialNumber>
<UDN>uuid:2f402f80-da50-11e1-9b23-001788102201</UDN>
<presentationURL>admin/switches</presentationURL>
</device>
</root>`, s.ip, s.port, s.ip)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{{"success": map[string]any{"username": "admin"}}})
}

func toLight(v *model.SwitchView) *huego.Light {
	return &huego.Light{
		Name:             v.Name,
		Type:             lightType,
		State:            &huego.State{On: v.On, Reachable: true},
		ModelID:          lightModelID,
		UniqueID:         v.ID,
		ManufacturerName: manufacturerName,
	}
}

func (s *Server) lights(r *http.Request) (map[string]*huego.Light, error) {
	switches, err := s.bridge.GetSwitches(r.Context())
	if err != nil {
		return nil, err
	}
	lights := make(map[string]*huego.Light, len(switches))
	for _, sw := range switches {
		lights[sw.ID] = toLight(sw)
	}
	return lights, nil
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	lights, err := s.lights(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lights": lights,
		"groups": map[string]any{},
		"config": map[string]any{
			"name":       "Air purifier bridge",
			"swversion":  "01003542",
			"apiversion": "1.11.0",
			"mac":        "00:17:88:10:22:01",
			"bridgeid":   "001788FFFE102201",
			"modelid":    "BSB001",
		},
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.lights(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	sw, err := s.bridge.GetSwitch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toLight(sw))
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update struct {
		On *bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if update.On == nil {
		http.Error(w, "only the on attribute is supported", http.StatusBadRequest)
		return
	}

	if err := s.bridge.SetSwitch(r.Context(), id, *update.On); err != nil {
		s.logger.Warn("switch command failed", "switch", id, "on", *update.On, "err", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, []map[string]any{{
		"success": map[string]any{
			fmt.Sprintf("/lights/%s/state/on", id): *update.On,
		},
	}})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.bridge.GetConfig(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var entry model.ConfigEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	added, err := s.bridge.AddEntry(r.Context(), &entry)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.bridge.RemoveEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSwitches(w http.ResponseWriter, r *http.Request) {
	switches, err := s.bridge.GetSwitches(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": switches})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.bridge.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSwitchNotFound), errors.Is(err, service.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
