package web

import (
	"errors"

	"github.com/dukex/operion-designer/pkg/editor"
	"github.com/dukex/operion-designer/pkg/graph"
	"github.com/dukex/operion-designer/pkg/registry"
	"github.com/dukex/operion-designer/pkg/session"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	return problem(c, fiber.StatusNotFound, problemType, detail)
}

func conflict(c fiber.Ctx, problemType string, err error) error {
	return problem(c, fiber.StatusConflict, problemType, err.Error())
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

// handleError maps session, editor and graph errors onto problem responses.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case session.IsNotFound(err):
		return notFound(c, "session_not_found", "session not found")

	case errors.Is(err, session.ErrSessionClosed):
		return conflict(c, "session_closed", err)

	case errors.Is(err, graph.ErrNodeNotFound):
		return notFound(c, "node_not_found", err.Error())

	case errors.Is(err, graph.ErrConnectionNotFound):
		return notFound(c, "connection_not_found", err.Error())

	case editor.IsReadOnly(err):
		return conflict(c, "read_only", err)

	case graph.IsProtectedNode(err):
		return conflict(c, "protected_node", err)

	case graph.IsDuplicateEdge(err):
		return conflict(c, "duplicate_connection", err)

	case graph.IsInvalidDefinition(err),
		registry.IsInvalidConfig(err),
		registry.IsUnknownNodeType(err),
		errors.Is(err, graph.ErrConfigMismatch),
		errors.Is(err, editor.ErrUnknownEvent):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}
