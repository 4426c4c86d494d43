// Package web provides HTTP handlers for the designer's editing sessions.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dukex/operion-designer/pkg/canvas"
	"github.com/dukex/operion-designer/pkg/models"
	"github.com/dukex/operion-designer/pkg/otelhelper"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/dukex/operion-designer/pkg/session"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type APIHandlers struct {
	sessions  *session.Manager
	validator *validator.Validate
	registry  *registry.Registry
	tracer    trace.Tracer
	frame     canvas.Frame
}

func NewAPIHandlers(
	sessions *session.Manager,
	validator *validator.Validate,
	registry *registry.Registry,
	tracer trace.Tracer,
) *APIHandlers {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &APIHandlers{
		sessions:  sessions,
		validator: validator,
		registry:  registry,
		tracer:    tracer,
		frame:     canvas.DefaultFrame(),
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	status := "unhealthy"
	message := "Operion Designer is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk {
		status = "healthy"
		message = "Operion Designer is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
		},
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(TransformNodeTypes(registry.Types()))
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	opts := session.Options{
		Definition: req.Definition,
		ReadOnly:   req.ReadOnly,
	}

	if req.CanvasOrigin != nil {
		frame := h.frame
		frame.Origin = *req.CanvasOrigin
		opts.Frame = &frame
	}

	s, err := h.sessions.Open(c.Context(), opts)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewSessionResponse(s))
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(NewSessionResponse(s))
}

func (h *APIHandlers) DeleteSession(c fiber.Ctx) error {
	if err := h.sessions.Close(c.Context(), c.Params("id")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) DispatchEvent(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req EventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ev, err := req.ToEvent()
	if err != nil {
		return badRequest(c, err.Error())
	}

	_, span := otelhelper.StartSpan(c.Context(), h.tracer, "editor.dispatch",
		attribute.String(otelhelper.SessionIDKey, s.ID()),
		attribute.String(otelhelper.EventKindKey, req.Kind),
	)
	defer span.End()

	t, err := s.Dispatch(ev)
	if err != nil {
		otelhelper.SetError(span, err)

		return handleError(c, err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.StateFromKey, t.From.String()),
		attribute.String(otelhelper.StateToKey, t.To.String()),
		attribute.String(otelhelper.MutationKey, string(t.Mutation)),
	)

	// A refused gesture never reached the state machine.
	if t.Err != nil && t.Mutation == "" {
		otelhelper.SetError(span, t.Err)

		return handleError(c, t.Err)
	}

	otelhelper.SetError(span, t.Err)

	return c.JSON(NewTransitionResponse(t, s.View()))
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	nodeID := c.Params("nodeId")

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edit := session.NodeEdit{
		Label:    req.Label,
		Position: req.Position,
	}

	if len(req.Config) > 0 {
		node := s.Snapshot().NodeByID(nodeID)
		if node == nil {
			return notFound(c, "node_not_found", "node not found")
		}

		cfg, err := h.decodeConfig(node.Type, req.Config)
		if err != nil {
			return handleError(c, err)
		}

		edit.SetConfig = true
		edit.Config = cfg
	}

	_, span := otelhelper.StartSpan(c.Context(), h.tracer, "editor.edit_node",
		attribute.String(otelhelper.SessionIDKey, s.ID()),
		attribute.String(otelhelper.NodeIDKey, nodeID),
	)
	defer span.End()

	if err := s.EditNode(nodeID, edit); err != nil {
		otelhelper.SetError(span, err)

		return handleError(c, err)
	}

	return c.JSON(NewSessionResponse(s))
}

// decodeConfig validates a raw config against the node type's schema.
func (h *APIHandlers) decodeConfig(t models.NodeType, raw json.RawMessage) (models.NodeConfig, error) {
	if string(raw) == "null" {
		return nil, nil
	}

	var config map[string]any
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, registry.ErrInvalidConfig
	}

	return h.registry.DecodeConfig(t, config)
}

func (h *APIHandlers) UpdateConnection(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	var req UpdateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.UpdateConnection(c.Params("connectionId"), req.Label, req.Condition); err != nil {
		return handleError(c, err)
	}

	return c.JSON(NewSessionResponse(s))
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	if err := s.RemoveConnection(c.Params("connectionId")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Register mounts the session and node type routes on r.
func (h *APIHandlers) Register(r fiber.Router) {
	r.Get("/node-types", h.GetNodeTypes)

	s := r.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)
	s.Post("/:id/events", h.DispatchEvent)
	s.Patch("/:id/nodes/:nodeId", h.UpdateNode)
	s.Patch("/:id/connections/:connectionId", h.UpdateConnection)
	s.Delete("/:id/connections/:connectionId", h.DeleteConnection)
}
