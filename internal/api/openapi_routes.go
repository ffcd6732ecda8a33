package api

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/noodle-rush/internal/errors"
)

const defaultOpenAPIFile = "docs/api/openapi.yaml"

// registerOpenAPIRoutes 提供 /openapi 与 /openapi.yaml
func registerOpenAPIRoutes(engine *gin.Engine, specFile string) {
	serve := func(c *gin.Context) {
		if _, err := os.Stat(specFile); err != nil {
			fail(c, errors.Newf(errors.ErrNotFound, "接口文档不存在: %s", specFile))
			return
		}
		c.Header("Content-Type", "application/yaml; charset=utf-8")
		c.File(specFile)
	}

	engine.GET("/openapi", serve)
	engine.GET("/openapi.yaml", serve)
}
