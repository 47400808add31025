package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

type pingController struct{}

func (c *pingController) MountRoutes(router gin.IRouter) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})
}

func TestMountControllersFromRegistry(t *testing.T) {
	reg := registry.NewStandardRegistry()
	require.NoError(t, reg.RegisterSingleton("pingController", &pingController{}))

	b := NewBuilder().UsePort(9090).AddController("pingController")
	host := &Host{
		engine:          b.engine,
		port:            b.port,
		controllerNames: b.controllerNames,
		registry:        reg,
		logger:          logging.Nop(),
	}
	require.NoError(t, host.MountControllers())
	assert.Equal(t, 9090, host.Port())

	recorder := httptest.NewRecorder()
	host.Engine().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestMountControllersRejectsNonController(t *testing.T) {
	reg := registry.NewStandardRegistry()
	require.NoError(t, reg.RegisterSingleton("notController", "just a string"))

	b := NewBuilder().AddController("notController")
	host := &Host{
		engine:          b.engine,
		controllerNames: b.controllerNames,
		registry:        reg,
		logger:          logging.Nop(),
	}
	assert.ErrorContains(t, host.MountControllers(), "expected web.Controller")
}

func TestMountControllersMissingComponent(t *testing.T) {
	b := NewBuilder().AddController("ghost")
	host := &Host{
		engine:          b.engine,
		controllerNames: b.controllerNames,
		registry:        registry.NewStandardRegistry(),
		logger:          logging.Nop(),
	}
	assert.Error(t, host.MountControllers())
}

func TestBuilderDirectRoutes(t *testing.T) {
	b := NewBuilder().
		Get("/health", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) }).
		Post("/echo", func(ctx *gin.Context) {
			body, _ := ctx.GetRawData()
			ctx.String(http.StatusOK, string(body))
		})

	recorder := httptest.NewRecorder()
	b.engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
