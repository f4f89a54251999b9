package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"informeclaro/internal/http/middleware"
	"informeclaro/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "EMPTY_PDF", "NOT_FOUND", "PROCESSING_ERROR")
// - message: human-readable message shown by the web page
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrNoFileSelected, fiber.StatusBadRequest, "NO_FILE_SELECTED", "No se seleccionó ningún archivo."},
	{service.ErrUnsupportedFormat, fiber.StatusBadRequest, "UNSUPPORTED_FORMAT", "Formato de archivo no soportado. Por favor, suba un PDF."},
	{service.ErrEmptyText, fiber.StatusBadRequest, "EMPTY_PDF", "El PDF está vacío o no contiene texto extraíble."},
	{service.ErrMissingFields, fiber.StatusBadRequest, "MISSING_FIELDS", "Datos de sesión incompletos."},
	{service.ErrInvalidName, fiber.StatusBadRequest, "INVALID_NAME", "Nombre de archivo no válido."},
	{service.ErrSessionNotFound, fiber.StatusNotFound, "NOT_FOUND", "Archivo original no encontrado para esta sesión."},
	{service.ErrSessionBusy, fiber.StatusConflict, "SESSION_BUSY", "Esta sesión ya se está procesando."},
	{service.ErrReportNotFound, fiber.StatusNotFound, "NOT_FOUND", "Informe no encontrado."},
	{service.ErrNotArchived, fiber.StatusNotFound, "NOT_ARCHIVED", "El informe no tiene copia archivada."},
	{service.ErrLedgerUnavailable, fiber.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "El registro de informes no está configurado."},
	{service.ErrArchiveUnavailable, fiber.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "El archivo de informes no está configurado."},
}

func lookupServiceError(err error) (errorMapping, bool) {
	var se *service.StageError
	if errors.As(err, &se) {
		return errorMapping{}, false
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// writePipelineError maps a Preview/Confirm failure. Processing failures surface
// their raw error text behind prefix so the user can see what went wrong.
func writePipelineError(c *fiber.Ctx, err error, prefix string) error {
	if m, ok := lookupServiceError(err); ok {
		return writeError(c, m.status, m.code, m.message)
	}
	return writeError(c, fiber.StatusInternalServerError, "PROCESSING_ERROR", prefix+err.Error())
}

// writeServiceError maps ledger failures without leaking internal errors.
func writeServiceError(c *fiber.Ctx, err error) error {
	if m, ok := lookupServiceError(err); ok {
		return writeError(c, m.status, m.code, m.message)
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "El archivo supera el tamaño máximo permitido.")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
