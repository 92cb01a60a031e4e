package api

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-quake/internal/humastar"
	"github.com/joeblew999/plat-quake/internal/service"
	"github.com/joeblew999/plat-quake/internal/templates"
)

// Page element ids patched by the event stream.
const (
	overlayStatusSelector = "#overlay-status"
	noticesSelector       = "#notices"
)

// EventHandler streams canvas changes to the map page via Datastar SSE.
type EventHandler struct {
	humastar.Handler
	canvas *service.Canvas
	logger logrus.FieldLogger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(canvas *service.Canvas, renderer *templates.Renderer, logger logrus.FieldLogger) *EventHandler {
	return &EventHandler{
		Handler: humastar.Handler{Renderer: renderer},
		canvas:  canvas,
		logger:  logger.WithField("component", "events"),
	}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events,
		huma.OperationTags("events"),
		func(o *huma.Operation) {
			o.Description = "Datastar SSE stream of overlay status and notices."
		},
	)
}

// Events sends the current overlay status and notices, then follows the
// canvas event bus until the client goes away.
func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		events := h.canvas.Events().Subscribe(ctx)

		if err := h.sync(sse); err != nil {
			h.logger.WithError(err).Debug("client gone before initial sync")
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := h.forward(sse, ev); err != nil {
					h.logger.WithError(err).Debug("event stream closed")
					return
				}
			}
		}
	}), nil
}

func (h *EventHandler) sync(sse humastar.SSE) error {
	if err := h.patchOverlays(sse); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, n := range h.canvas.Notices() {
		if err := h.Renderer.RenderToBuffer(&buf, "notice", n); err != nil {
			h.logger.WithError(err).Warn("render notice")
		}
	}
	return sse.Patch(buf.String(), noticesSelector)
}

func (h *EventHandler) forward(sse humastar.SSE, ev service.Event) error {
	switch ev.Resource {
	case "overlays":
		if err := h.patchOverlays(sse); err != nil {
			return err
		}
		if err := sse.DispatchCustomEvent("overlay-"+ev.Action, map[string]any{"id": ev.ID}); err != nil {
			return err
		}
	case "notices":
		n, ok := h.canvas.Notice(ev.ID)
		if !ok {
			return nil
		}
		if err := sse.Append(h.Render("notice", n), noticesSelector); err != nil {
			return err
		}
	}
	return nil
}

func (h *EventHandler) patchOverlays(sse humastar.SSE) error {
	if err := sse.Patch(h.Render("overlay-status", h.canvas.Overlays()), overlayStatusSelector); err != nil {
		return err
	}
	return sse.Signals(map[string]any{"loaded": h.canvas.Loaded()})
}
