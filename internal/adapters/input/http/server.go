// Package http serves the emulated Hue bridge API and the admin API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amimof/huego"

	"floodlight-bridge/internal/domain/model"
	"floodlight-bridge/internal/domain/translator"
	"floodlight-bridge/internal/infrastructure/logging"
	"floodlight-bridge/internal/ports"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	bridge      ports.BridgePort
	translators *translator.Factory
	ip          string
	port        int
	logger      *logging.Logger
}

func NewServer(bridge ports.BridgePort, ip string, port int, logger *logging.Logger) *Server {
	return &Server{
		bridge:      bridge,
		translators: translator.NewFactory(),
		ip:          ip,
		port:        port,
		logger:      logger.With("component", "http"),
	}
}

// Handler returns the routed handler for both APIs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/description.xml", s.handleDescription)
	mux.HandleFunc("/api", s.handleAPI)
	mux.HandleFunc("/api/", s.handleAPI)
	mux.HandleFunc("GET /admin", s.handleAdmin)
	mux.HandleFunc("GET /admin/devices", s.handleListDevices)
	mux.HandleFunc("POST /admin/devices", s.handleCreateDevice)
	mux.HandleFunc("GET /admin/devices/{id}/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /admin/devices/{id}/settings", s.handlePutSettings)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
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
<friendlyName>Philips hue (%s)</friendlyName>
<manufacturer>Royal Philips Electronics</manufacturer>
<manufacturerURL>http://www.philips.com</manufacturerURL>
<modelDescription>Philips hue Personal Wireless Lighting</modelDescription>
<modelName>Philips hue bridge 2012</modelName>
<modelNumber>929000226503</modelNumber>
<modelURL>http://www.meethue.com</modelURL>
<serialNumber>001788102201</serialNumber>
<UDN>uuid:2f402f80-da50-11e1-9b23-001788102201</UDN>
<presentationURL>admin</presentationURL>
</device>
</root>`, s.ip, s.port, s.ip)
}

// handleAPI routes /api/<user>/... by hand; Hue clients are loose about
// trailing slashes and usernames.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")

	if path == "" {
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// parts[0] is the username, which is not checked.
	parts := strings.Split(path, "/")
	sub := parts[1:]

	switch {
	case len(sub) == 0:
		s.handleFullState(w, r)
	case sub[0] != "lights":
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	case len(sub) == 1:
		s.handleGetLights(w, r)
	case len(sub) == 2:
		s.handleGetLight(w, r, sub[1])
	case len(sub) == 3 && sub[2] == "state":
		s.handleSetLightState(w, r, sub[1])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]interface{}{
		{"success": map[string]string{"username": "admin"}},
	})
}

func (s *Server) lights(ctx context.Context) (map[string]*huego.Light, error) {
	devices, err := s.bridge.GetDevices(ctx)
	if err != nil {
		return nil, err
	}
	lights := make(map[string]*huego.Light, len(devices))
	for _, d := range devices {
		lights[d.ID] = s.toLight(d)
	}
	return lights, nil
}

func (s *Server) toLight(d *model.Device) *huego.Light {
	meta := s.translators.GetTranslator(d.Type).GetMetadata()
	return &huego.Light{
		Name:             d.Name,
		Type:             meta.Type,
		State:            d.State,
		ModelID:          meta.ModelID,
		UniqueID:         d.NativeID,
		ManufacturerName: meta.ManufacturerName,
	}
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	lights, err := s.lights(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lights": lights,
		"groups": map[string]interface{}{},
		"config": map[string]interface{}{
			"name":       "Philips hue",
			"swversion":  "01003542",
			"apiversion": "1.11.0",
			"mac":        "00:17:88:10:22:01",
			"bridgeid":   "001788FFFE102201",
			"modelid":    "BSB001",
			"ipaddress":  s.ip,
		},
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.lights(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request, id string) {
	device, err := s.bridge.GetDevice(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toLight(device))
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var stateUpdate map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&stateUpdate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.bridge.UpdateDeviceState(r.Context(), id, stateUpdate); err != nil {
		s.fail(w, err)
		return
	}

	resp := make([]map[string]interface{}, 0, len(stateUpdate))
	for k, v := range stateUpdate {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{
				fmt.Sprintf("/lights/%s/state/%s", id, k): v,
			},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var resultErr *model.ResultError
	switch {
	case errors.Is(err, model.ErrDeviceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrUnknownSetting),
		errors.Is(err, model.ErrInvalidSettingValue),
		errors.Is(err, model.ErrEmptyCommand):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotConfigured):
		status = http.StatusConflict
	case errors.Is(err, model.ErrTransport),
		errors.Is(err, model.ErrMalformedResponse),
		errors.As(err, &resultErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
