package handler

import (
	"embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed static/index.html static/openapi.yaml
var static embed.FS

const swaggerHTML = `<!DOCTYPE html>
<html lang="es">
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

func sendStatic(c *fiber.Ctx, name, contentType string) error {
	b, err := static.ReadFile(name)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(b)
}

// Index serves the page driving the upload / preview / confirm flow.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendStatic(c, "static/index.html", fiber.MIMETextHTMLCharsetUTF8)
	}
}

// OpenAPISpec serves the OpenAPI document.
func OpenAPISpec() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return sendStatic(c, "static/openapi.yaml", "application/yaml")
	}
}

// SwaggerUI serves a Swagger UI page pointed at /openapi.yaml.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Type("html").SendString(swaggerHTML)
	}
}
