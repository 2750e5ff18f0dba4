package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// openAPIFile OpenAPI 文档路径，相对工作目录
var openAPIFile = "docs/api/openapi.yaml"

// registerOpenAPIRoutes 提供 /openapi.yaml 与 /docs/redoc
func registerOpenAPIRoutes(engine *gin.Engine) {
	engine.GET("/openapi", serveOpenAPI)
	engine.GET("/openapi.yaml", serveOpenAPI)
	engine.GET("/docs/redoc", serveRedoc)
}

func serveOpenAPI(c *gin.Context) {
	data, err := os.ReadFile(openAPIFile)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not_found"})
		return
	}
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", data)
}

const redocPage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Deep Sea Slots API</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="/openapi.yaml" expand-responses="200"></redoc>
    {{script}}
  </body>
</html>`

// serveRedoc 优先使用本地 redoc 资源，离线可用；否则回退到 CDN
func serveRedoc(c *gin.Context) {
	script := `<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>`
	if _, err := os.Stat("static/vendors/redoc/redoc.standalone.js"); err == nil {
		script = `<script src="/static/vendors/redoc/redoc.standalone.js"></script>`
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(strings.Replace(redocPage, "{{script}}", script, 1)))
}
