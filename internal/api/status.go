package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
)

// StatusResponse is the body of /api/v1/status.
type StatusResponse struct {
	PluginID       string           `json:"plugin_id"`
	SessionID      string           `json:"session_id"`
	Running        bool             `json:"running"`
	GatewayVersion string           `json:"gateway_version,omitempty"`
	Version        string           `json:"version"`
	UptimeSeconds  int64            `json:"uptime_seconds"`
	Adapters       []AdapterStatus  `json:"adapters"`
	Notifiers      []NotifierStatus `json:"notifiers"`
}

// AdapterStatus describes one registered adapter.
type AdapterStatus struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	PackageName string         `json:"package_name"`
	Ready       bool           `json:"ready"`
	Devices     []DeviceStatus `json:"devices"`
}

// DeviceStatus is a device's title and cached property values.
type DeviceStatus struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Properties map[string]any `json:"properties"`
}

// NotifierStatus describes one registered notifier.
type NotifierStatus struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Ready   bool     `json:"ready"`
	Outlets []string `json:"outlets"`
}

// handleHealth reports 200 while the gateway session is running and every
// check passes, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks)+1)

	if s.session.Running() {
		checks["gateway"] = "ok"
	} else {
		checks["gateway"] = "disconnected"
		status = http.StatusServiceUnavailable
	}

	for name, c := range s.checks {
		if err := c.HealthCheck(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  result,
		"version": s.version,
		"checks":  checks,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		PluginID:       s.session.PluginID(),
		SessionID:      s.session.ID(),
		Running:        s.session.Running(),
		GatewayVersion: s.gatewayVersion,
		Version:        s.version,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		Adapters:       []AdapterStatus{},
		Notifiers:      []NotifierStatus{},
	}
	for _, a := range s.session.Adapters() {
		resp.Adapters = append(resp.Adapters, adapterStatus(a))
	}
	for _, n := range s.session.Notifiers() {
		resp.Notifiers = append(resp.Notifiers, notifierStatus(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAdapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, a := range s.session.Adapters() {
		if a.ID() == id {
			writeJSON(w, http.StatusOK, adapterStatus(a))
			return
		}
	}
	writeNotFound(w, "adapter not found")
}

func (s *Server) handleGetNotifier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, n := range s.session.Notifiers() {
		if n.ID() == id {
			writeJSON(w, http.StatusOK, notifierStatus(n))
			return
		}
	}
	writeNotFound(w, "notifier not found")
}

func adapterStatus(a *addon.Adapter) AdapterStatus {
	st := AdapterStatus{
		ID:          a.ID(),
		Name:        a.Name(),
		PackageName: a.PackageName(),
		Ready:       a.Ready(),
		Devices:     []DeviceStatus{},
	}
	for _, d := range a.Devices() {
		desc := d.Describe()
		ds := DeviceStatus{
			ID:         desc.ID,
			Title:      desc.Title,
			Properties: make(map[string]any, len(desc.Properties)),
		}
		for name, p := range desc.Properties {
			ds.Properties[name] = p.Value
		}
		st.Devices = append(st.Devices, ds)
	}
	return st
}

func notifierStatus(n *addon.Notifier) NotifierStatus {
	st := NotifierStatus{
		ID:      n.ID(),
		Name:    n.Name(),
		Ready:   n.Ready(),
		Outlets: []string{},
	}
	for _, o := range n.Outlets() {
		st.Outlets = append(st.Outlets, o.ID())
	}
	return st
}
