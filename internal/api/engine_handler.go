package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
)

// Health отвечает на health check.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// GetEngine возвращает состояние engine.
// GET /api/v1/engine
func (h *Handler) GetEngine(w http.ResponseWriter, _ *http.Request) {
	resp := EngineResponse{Status: h.engine.Status()}
	if h.frames != nil {
		if frame, ok := h.frames.Last(); ok {
			resp.Frame = &frame
		}
	}
	Success(w, resp)
}

// StartEngine запускает engine. Остановленный engine сначала сбрасывается.
// POST /api/v1/engine/start
func (h *Handler) StartEngine(w http.ResponseWriter, _ *http.Request) {
	status := h.engine.Status()
	if status.State.IsRunning() {
		Conflict(w, "engine is already running")
		return
	}

	if status.State == domain.EngineStateStopped {
		if err := h.engine.Reset(); err != nil {
			h.handleEngineError(w, err)
			return
		}
	}

	if err := h.engine.Start(h.runCtx); err != nil {
		h.handleEngineError(w, err)
		return
	}

	h.logger.Info("engine started via admin api")
	Accepted(w, h.engine.Status())
}

// StopEngine просит engine остановиться после активного шага.
// POST /api/v1/engine/stop
func (h *Handler) StopEngine(w http.ResponseWriter, _ *http.Request) {
	h.engine.RequestStop()

	h.logger.Info("engine stop requested via admin api")
	Accepted(w, h.engine.Status())
}

// ListFrames возвращает последние показанные кадры.
// GET /api/v1/frames
func (h *Handler) ListFrames(w http.ResponseWriter, _ *http.Request) {
	if h.frames == nil {
		Unavailable(w, "frame recording is disabled")
		return
	}

	frames := h.frames.Frames()
	List(w, frames, len(frames))
}

func (h *Handler) handleEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrEngineRunning) || errors.Is(err, engine.ErrEngineStopped) {
		Conflict(w, err.Error())
		return
	}
	InternalError(w, h.logger, err)
}
