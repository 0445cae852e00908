package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/park285/piece-wheel/internal/wheel"
	"github.com/park285/piece-wheel/internal/wheelimg"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
)

type handlers struct {
	d Deps
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) State(w http.ResponseWriter, r *http.Request) {
	st := h.d.Wheel.State()
	st.Monitor = "idle"
	if h.d.Monitor != nil {
		st.Monitor = h.d.Monitor.State().String()
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) side(w http.ResponseWriter, r *http.Request) (wheel.Side, bool) {
	side, err := wheel.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return "", false
	}
	return side, true
}

func (h *handlers) Spin(w http.ResponseWriter, r *http.Request) {
	side, ok := h.side(w, r)
	if !ok {
		return
	}
	t, accepted := h.d.Wheel.Spin(side)
	if !accepted {
		writeJSON(w, http.StatusConflict, errorBody{Error: "spin disallowed"})
		return
	}
	writeJSON(w, http.StatusAccepted, wheeldto.SpinEvent{
		Side:       string(t.Side),
		SpinID:     t.SpinID,
		Angle:      t.Angle,
		Rotation:   t.Rotation,
		DurationMS: t.Duration.Milliseconds(),
	})
}

func (h *handlers) Image(w http.ResponseWriter, r *http.Request) {
	side, ok := h.side(w, r)
	if !ok {
		return
	}
	layout, err := h.d.Wheel.Layout(side)
	if errors.Is(err, wheel.ErrUnknownSide) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	size := h.d.ImageSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid size"})
			return
		}
		size = n
	}
	png, err := wheelimg.Render(layout.Tokens, layout.Rotation, size)
	if err != nil {
		h.d.Logger.Warn("wheel_image_error", zap.String("side", string(side)), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
