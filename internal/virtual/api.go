package virtual

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-addon/internal/addon"
)

type lightView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	On          bool    `json:"on"`
	Level       float64 `json:"level"`
	Temperature float64 `json:"temperature"`
}

func viewOf(d *addon.Device) lightView {
	v := lightView{ID: d.ID(), Title: d.Title()}
	if p, ok := d.Property(PropOn); ok {
		v.On, _ = p.Value().(bool)
	}
	if p, ok := d.Property(PropLevel); ok {
		v.Level, _ = p.Value().(float64)
	}
	if p, ok := d.Property(PropTemperature); ok {
		v.Temperature, _ = p.Value().(float64)
	}
	return v
}

// routes serves the package's proxied API.
func routes(r chi.Router, a *addon.Adapter) {
	r.Get("/lights", func(w http.ResponseWriter, _ *http.Request) {
		devices := a.Devices()
		out := make([]lightView, 0, len(devices))
		for _, d := range devices {
			out = append(out, viewOf(d))
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/lights/{id}", func(w http.ResponseWriter, r *http.Request) {
		d, ok := a.Device(chi.URLParam(r, "id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "light not found"})
			return
		}
		writeJSON(w, http.StatusOK, viewOf(d))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort write into the response recorder
	json.NewEncoder(w).Encode(v)
}
