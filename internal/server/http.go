package server

import (
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"

	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

func (s *DebugServer) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	var snapshot terrain.Snapshot
	s.Do(func(t *terrain.Terrain) { snapshot = t.Snapshot() })
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *DebugServer) handleOverlay(w http.ResponseWriter, r *http.Request) {
	scale := s.opts.Scale
	if raw := r.URL.Query().Get("scale"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 8)
		if err != nil || v == 0 || v > MaxOverlayScale {
			s.writeError(w, http.StatusBadRequest,
				fmt.Errorf("%w: scale %q outside [1, %d]", ErrInvalidRequest, raw, MaxOverlayScale))
			return
		}
		scale = uint32(v)
	}

	var width, height uint32
	s.Do(func(t *terrain.Terrain) { width, height = t.Width(), t.Height() })
	if pixels := uint64(width) * uint64(height) * uint64(scale) * uint64(scale); pixels > uint64(s.opts.MaxOverlayPixels) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Errorf("%w: overlay of %d pixels exceeds %d", ErrInvalidRequest, pixels, s.opts.MaxOverlayPixels))
		return
	}

	// The canvas is allocated before taking the lock; only drawing needs it.
	canvas := terrain.NewImageCanvas(width, height, float32(scale))
	s.Do(func(t *terrain.Terrain) { t.Draw(canvas) })

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, canvas.Image); err != nil {
		s.logger.Warn("Failed to encode overlay", log.Error(err))
	}
}

func (s *DebugServer) handleDestruct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := parseCoord(q.Get("x"))
	y, errY := parseCoord(q.Get("y"))
	radius, errR := parseCoord(q.Get("r"))
	if errX != nil || errY != nil || errR != nil {
		s.writeError(w, http.StatusBadRequest,
			fmt.Errorf("%w: x, y and r must be unsigned integers", ErrInvalidRequest))
		return
	}

	var d terrain.Destruction
	s.Do(func(t *terrain.Terrain) { d = t.Destruct(x, y, radius) })
	s.writeJSON(w, http.StatusOK, d)
}

func parseCoord(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	return uint32(v), err
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *DebugServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *DebugServer) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", log.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
