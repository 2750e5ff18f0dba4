//go:build !swagger

package api

import "github.com/gin-gonic/gin"

// registerSwaggerRoutes 默认构建不带 Swagger UI
func registerSwaggerRoutes(*gin.Engine) {}
