package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"reportvault/internal/http/middleware"
	"reportvault/internal/repository"
	"reportvault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse the request, call the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, downloadSvc service.DownloadService, uploadSvc service.UploadService, reports repository.ReportRepository) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/reports/:id/file", PreviewReport(downloadSvc))
	app.Get("/reports/:id/download", DownloadReport(downloadSvc))
	app.Post("/reports/:id/file", UploadReportFile(uploadSvc, reports))
}

// HealthCheck reports readiness: it checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint with no dependency checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// DownloadReport serves a report's stored file with attachment disposition.
// The `inline` query flag switches to inline rendering. Authorization, path
// containment, the rate limit and audit logging all happen in the service.
func DownloadReport(svc service.DownloadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.PrincipalFromCtx(c)
		inline := c.QueryBool("inline")

		desc, err := svc.Download(c.UserContext(), c.Params("id"), principal, c.IP(), inline)
		if err != nil {
			return writeServiceError(c, err)
		}

		return serveDescriptor(c, desc)
	}
}

// PreviewReport serves a report's file for inline viewing. Only PDF files
// are served on this surface.
func PreviewReport(svc service.DownloadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		desc, err := svc.Preview(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		return serveDescriptor(c, desc)
	}
}

// UploadReportFile attaches an uploaded file to an existing report
// (multipart/form-data, field name: file). The previous file, if any, is
// retired after the new one is stored, and the report row is updated with
// the new stored path.
func UploadReportFile(svc service.UploadService, reports repository.ReportRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "report id is required")
		}

		rep, err := reports.FindActiveByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "REPORT_NOT_FOUND", "report not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.Upload(c.UserContext(), rep.UserID, f, fh.Filename, fh.Size, rep.FilePath)
		if err != nil {
			return writeServiceError(c, err)
		}

		updated, err := reports.UpdateFile(c.UserContext(), rep.ID, res.LogicalPath, res.ByteSize, res.OriginalFilename)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"report": updated,
			"file":   res,
		})
	}
}

// serveDescriptor streams the resolved file and fixes up response headers.
// Headers are set after SendFile so the sniffed content type wins over the
// extension-based one Fiber derives.
func serveDescriptor(c *fiber.Ctx, desc *service.DownloadDescriptor) error {
	if err := c.SendFile(desc.AbsolutePath); err != nil {
		// The file passed Locate but vanished before serving
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "report file does not exist or has been removed")
	}

	c.Set(fiber.HeaderContentType, desc.ContentType)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(desc.Disposition, desc.Filename))
	c.Set("X-Content-Type-Options", "nosniff")

	return nil
}

// contentDisposition builds a Content-Disposition value carrying both an
// ASCII fallback filename and the RFC 5987 UTF-8 form, so CJK download
// names survive every client.
func contentDisposition(disposition, filename string) string {
	fallback := make([]rune, 0, len(filename))
	for _, r := range filename {
		if r > 127 || r == '"' || r == '\\' {
			fallback = append(fallback, '_')
		} else {
			fallback = append(fallback, r)
		}
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, disposition, string(fallback), url.PathEscape(filename))
}
