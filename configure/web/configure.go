package web

import (
	"github.com/gin-gonic/gin"

	"github.com/gocrud/beans/container"
	"github.com/gocrud/beans/logging"
)

// HostComponentName Web 主机在注册表中的组件名
const HostComponentName = "webHost"

// Builder Web 主机构建器
type Builder struct {
	port            int
	engine          *gin.Engine
	controllerNames []string
}

// NewBuilder 创建 Web 构建器。gin 默认为发布模式，自带 panic 恢复中间件。
func NewBuilder() *Builder {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	return &Builder{
		port:   8080,
		engine: engine,
	}
}

// UsePort 设置监听端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Use 添加全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// AddController 声明一个控制器组件名。
// 组件在主机启动时从注册表解析，必须实现 Controller 接口。
func (b *Builder) AddController(componentName string) *Builder {
	b.controllerNames = append(b.controllerNames, componentName)
	return b
}

// Get 直接注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 直接注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Configure 返回 Web 配置器。
// 主机注册为单例并登记为托管服务，容器启动时开始监听。
func Configure(options func(*Builder)) container.Configurator {
	return func(ctx *container.BuildContext) {
		b := NewBuilder()
		if options != nil {
			options(b)
		}

		logger := ctx.GetLogger().WithCategory("Web")
		host := &Host{
			engine:          b.engine,
			port:            b.port,
			controllerNames: b.controllerNames,
			registry:        ctx.Registry(),
			logger:          logger,
		}

		if err := ctx.RegisterInstance(HostComponentName, host); err != nil {
			logger.Fatal("Failed to register web host",
				logging.Field{Key: "error", Value: err.Error()})
		}
		ctx.AddHostedService(host)

		logger.Info("Web host configured",
			logging.Field{Key: "port", Value: b.port})
	}
}
