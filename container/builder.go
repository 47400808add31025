package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/beans/config"
	"github.com/gocrud/beans/hosting"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/processor"
	"github.com/gocrud/beans/registry"
)

// Configurator 配置器函数，在容器刷新前通过 BuildContext 装配组件。
type Configurator func(*BuildContext)

// Extension 应用扩展的基础接口。
// 扩展模块应实现 ComponentConfigurator 或 ProcessorProvider（或两者）。
type Extension interface {
	// Name 返回扩展名，用于日志和诊断。
	Name() string
}

// ComponentConfigurator 在构建阶段向注册表装配组件的扩展。
type ComponentConfigurator interface {
	ConfigureComponents(ctx *BuildContext)
}

// ProcessorProvider 提供工厂变更型扩展处理器的扩展。
type ProcessorProvider interface {
	Processors() []processor.FactoryProcessor
}

// Builder 应用上下文构建器。
// 配置、日志、环境和组件装配都在这里声明，Build 产出未刷新的上下文。
type Builder struct {
	environment     string
	configBuilder   *config.ConfigurationBuilder
	loggerFactory   logging.LoggerFactory
	configurators   []Configurator
	processors      []processor.FactoryProcessor
	shutdownTimeout time.Duration
}

// NewBuilder 创建应用上下文构建器
func NewBuilder() *Builder {
	return &Builder{
		environment:     "development",
		configBuilder:   config.NewConfigurationBuilder(),
		loggerFactory:   logging.NewLoggerFactory(),
		shutdownTimeout: 30 * time.Second,
	}
}

// UseEnvironment 设置运行环境
func (b *Builder) UseEnvironment(env string) *Builder {
	b.environment = env
	return b
}

// UseShutdownTimeout 设置优雅关闭超时
func (b *Builder) UseShutdownTimeout(timeout time.Duration) *Builder {
	b.shutdownTimeout = timeout
	return b
}

// ConfigureConfiguration 配置配置系统
func (b *Builder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *Builder {
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统
func (b *Builder) ConfigureLogging(configure func(logging.LoggerFactory)) *Builder {
	if configure != nil {
		configure(b.loggerFactory)
	}
	return b
}

// Configure 添加配置器，按添加顺序在刷新前执行。
func (b *Builder) Configure(configurators ...Configurator) *Builder {
	for _, c := range configurators {
		if c != nil {
			b.configurators = append(b.configurators, c)
		}
	}
	return b
}

// AddProcessor 添加外部工厂变更型处理器
func (b *Builder) AddProcessor(p processor.FactoryProcessor) *Builder {
	if p != nil {
		b.processors = append(b.processors, p)
	}
	return b
}

// AddExtension 添加应用扩展。
// 扩展必须至少实现 ComponentConfigurator 和 ProcessorProvider 之一。
func (b *Builder) AddExtension(ext Extension) *Builder {
	cc, isConfigurator := ext.(ComponentConfigurator)
	pp, isProvider := ext.(ProcessorProvider)
	if !isConfigurator && !isProvider {
		panic(fmt.Sprintf("container: extension '%s' implements neither ComponentConfigurator nor ProcessorProvider", ext.Name()))
	}
	if isConfigurator {
		b.configurators = append(b.configurators, cc.ConfigureComponents)
	}
	if isProvider {
		b.processors = append(b.processors, pp.Processors()...)
	}
	return b
}

// AddTask 把一个阻塞函数注册为托管服务
func (b *Builder) AddTask(task func(ctx context.Context) error) *Builder {
	return b.Configure(func(ctx *BuildContext) {
		ctx.AddHostedService(hosting.NewFuncService(task))
	})
}

// Build 构建应用上下文。配置加载失败会返回错误而不是部分可用的上下文。
// 返回的上下文尚未刷新，调用方通常接着调用 Refresh 或 Run。
func (b *Builder) Build() (*ApplicationContext, error) {
	configuration, err := b.configBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("container: failed to build configuration: %w", err)
	}

	logger := b.loggerFactory.CreateLogger("Application")
	logger.Info("Building application context",
		logging.Field{Key: "environment", Value: b.environment})

	reg := registry.NewStandardRegistry()

	ctx := &ApplicationContext{
		registry:          reg,
		configuration:     configuration,
		loggerFactory:     b.loggerFactory,
		logger:            logger,
		environment:       NewEnvironment(b.environment),
		multicaster:       newEventMulticaster(logger.WithCategory("Events")),
		manager:           hosting.NewManager(logger.WithCategory("Hosting")),
		factoryProcessors: b.processors,
		cleanups:          make(map[string]func()),
		shutdownTimeout:   b.shutdownTimeout,
		stopCh:            make(chan struct{}),
	}

	buildCtx := &BuildContext{
		registry:      reg,
		configuration: configuration,
		logger:        logger,
		environment:   ctx.environment,
		appContext:    ctx,
	}
	for _, configurator := range b.configurators {
		configurator(buildCtx)
	}
	ctx.hostedServices = buildCtx.hostedServices

	return ctx, nil
}
