package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// Controller 控制器接口，负责把自己的路由挂载到 gin 路由器。
type Controller interface {
	MountRoutes(router gin.IRouter)
}

// Host 基于 gin 的 Web 托管服务。
// 启动时从注册表解析声明的控制器组件并挂载路由。
type Host struct {
	engine          *gin.Engine
	port            int
	controllerNames []string
	registry        registry.Registry
	logger          logging.Logger
	server          *http.Server
}

// Engine 返回底层 gin 引擎
func (h *Host) Engine() *gin.Engine {
	return h.engine
}

// Port 返回监听端口
func (h *Host) Port() int {
	return h.port
}

// MountControllers 从注册表解析声明的控制器并挂载路由
func (h *Host) MountControllers() error {
	for _, name := range h.controllerNames {
		instance, err := h.registry.Get(name)
		if err != nil {
			return fmt.Errorf("web: cannot resolve controller '%s': %w", name, err)
		}
		controller, ok := instance.(Controller)
		if !ok {
			return fmt.Errorf("web: component '%s' is %T, expected web.Controller", name, instance)
		}
		controller.MountRoutes(h.engine)
		h.logger.Info("Controller mounted", logging.Field{Key: "name", Value: name})
	}
	return nil
}

// Start 挂载控制器路由并启动 HTTP 服务，阻塞到服务退出。
func (h *Host) Start(ctx context.Context) error {
	if err := h.MountControllers(); err != nil {
		return err
	}

	h.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", h.port),
		Handler: h.engine,
	}

	h.logger.Info("Web host listening", logging.Field{Key: "port", Value: h.port})
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭 HTTP 服务
func (h *Host) Stop(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	h.logger.Info("Web host shutting down")
	return h.server.Shutdown(ctx)
}
