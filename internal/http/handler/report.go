package handler

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"informeclaro/internal/model"
	"informeclaro/internal/service"
)

const (
	uploadFailurePrefix  = "Error durante la carga y anonimización: "
	confirmFailurePrefix = "Error durante el procesamiento: "
)

// UploadPDF accepts the multipart field pdf_file and returns the preview handle.
func UploadPDF(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("pdf_file")
		if err != nil {
			// Browsers send the field with an empty file name when nothing was chosen;
			// it then arrives as a plain form value.
			if form, ferr := c.MultipartForm(); ferr == nil {
				if _, ok := form.Value["pdf_file"]; ok {
					return writeError(c, fiber.StatusBadRequest, "NO_FILE_SELECTED", "No se seleccionó ningún archivo.")
				}
			}
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "No se encontró el archivo PDF.")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "No se pudo leer el archivo subido.")
		}
		defer f.Close()

		res, err := svc.Preview(c.UserContext(), fh.Filename, f)
		if err != nil {
			return writePipelineError(c, err, uploadFailurePrefix)
		}
		return c.JSON(res)
	}
}

// ConfirmAndProcess runs the analysis and merge for a previewed session.
func ConfirmAndProcess(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.ConfirmRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "El cuerpo de la petición no es JSON válido.")
		}

		res, err := svc.Confirm(c.UserContext(), req)
		if err != nil {
			return writePipelineError(c, err, confirmFailurePrefix)
		}
		return c.JSON(res)
	}
}

// Download streams a preview or final PDF from the output area.
// A missing file falls through to the global 404 handler.
func Download(svc service.ReportService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("filename"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_NAME", "Nombre de archivo no válido.")
		}
		path, err := svc.ArtifactPath(name)
		if err != nil {
			return writeServiceError(c, err)
		}

		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fiber.ErrNotFound
			}
			return err
		}
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			_ = f.Close()
			return fiber.ErrNotFound
		}

		c.Type(strings.TrimPrefix(filepath.Ext(name), "."))
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
		return c.SendStream(f, int(info.Size()))
	}
}
