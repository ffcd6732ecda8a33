package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wfunc/noodle-rush/internal/errors"
)

const openAPIFile = "../../docs/api/openapi.yaml"

type openAPIDocument struct {
	OpenAPI string                            `yaml:"openapi"`
	Paths   map[string]map[string]interface{} `yaml:"paths"`
}

func TestOpenAPIServed(t *testing.T) {
	router := NewRouter(RouterConfig{Service: newTestService(t), OpenAPIFile: openAPIFile}).GetEngine()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "yaml")

	var doc openAPIDocument
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
	assert.True(t, strings.HasPrefix(doc.OpenAPI, "3."))
}

// 文档必须覆盖路由器注册的每个 /api/v1 接口
func TestOpenAPICoversRoutes(t *testing.T) {
	data, err := os.ReadFile(filepath.Clean(openAPIFile))
	require.NoError(t, err)

	var doc openAPIDocument
	require.NoError(t, yaml.Unmarshal(data, &doc))

	router := newTestRouter(t)
	count := 0
	for _, route := range router.Routes() {
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			continue
		}
		count++
		ops, ok := doc.Paths[route.Path]
		if !assert.True(t, ok, "缺少路径 %s", route.Path) {
			continue
		}
		_, ok = ops[strings.ToLower(route.Method)]
		assert.True(t, ok, "缺少 %s %s", route.Method, route.Path)
	}
	assert.Greater(t, count, 20)
}

func TestOpenAPIMissingFile(t *testing.T) {
	router := NewRouter(RouterConfig{
		Service:     newTestService(t),
		OpenAPIFile: filepath.Join(t.TempDir(), "missing.yaml"),
	}).GetEngine()

	code, resp := do(t, router, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errors.ErrNotFound, resp.Error.Code)
}

func TestSwaggerUI(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi")
}
