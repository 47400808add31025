package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/gocrud/beans/config"
	"github.com/gocrud/beans/expression"
	"github.com/gocrud/beans/hosting"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/processor"
	"github.com/gocrud/beans/registry"
)

var hostedServiceType = reflect.TypeOf((*hosting.HostedService)(nil)).Elem()

// 框架级组件在注册表中的保留名
const (
	ContextComponentName       = "applicationContext"
	ConfigurationComponentName = "configuration"
	LoggerComponentName        = "logger"
	LoggerFactoryComponentName = "loggerFactory"
	EnvironmentComponentName   = "environment"
)

// ApplicationContext 应用上下文，驱动容器的刷新与生命周期。
//
// 刷新流程: 安装表达式求值器，注册框架级单例，运行工厂变更阶段的
// 扩展处理器编排，安装实例化后置钩子，最后预实例化所有非延迟单例。
// 刷新是原子的: 任何一步失败都会使启动整体失败，不会留下
// 部分装配好的容器。
type ApplicationContext struct {
	registry      *registry.StandardRegistry
	configuration config.Configuration
	loggerFactory logging.LoggerFactory
	logger        logging.Logger
	environment   Environment

	multicaster *eventMulticaster
	manager     *hosting.Manager

	factoryProcessors []processor.FactoryProcessor
	hostedServices    []hosting.HostedService
	cleanups          map[string]func()
	cleanupOrder      []string

	shutdownTimeout time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	refreshed       bool
	running         bool
	mu              sync.RWMutex
}

// Registry 返回底层注册表
func (c *ApplicationContext) Registry() *registry.StandardRegistry {
	return c.registry
}

// Configuration 返回应用配置
func (c *ApplicationContext) Configuration() config.Configuration {
	return c.configuration
}

// Logger 返回应用日志记录器
func (c *ApplicationContext) Logger() logging.Logger {
	return c.logger
}

// Environment 返回运行环境信息
func (c *ApplicationContext) Environment() Environment {
	return c.environment
}

// AddFactoryProcessor 添加外部工厂变更型处理器，必须在 Refresh 之前调用。
func (c *ApplicationContext) AddFactoryProcessor(p processor.FactoryProcessor) {
	c.factoryProcessors = append(c.factoryProcessors, p)
}

// SetCleanup 登记一个关闭时执行的清理函数，key 重复时覆盖旧函数。
func (c *ApplicationContext) SetCleanup(key string, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cleanups[key]; !exists {
		c.cleanupOrder = append(c.cleanupOrder, key)
	}
	c.cleanups[key] = cleanup
}

// Refresh 刷新容器。只能调用一次。
func (c *ApplicationContext) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refreshed {
		return errors.New("container: context already refreshed")
	}

	c.logger.Info("Refreshing application context",
		logging.Field{Key: "environment", Value: c.environment.Name()})

	if c.registry.Converter() == nil {
		return errors.New("container: registry has no type converter")
	}
	c.registry.SetEvaluator(expression.NewPlaceholderEvaluator(c.configuration))
	c.registry.SetLogger(c.logger.WithCategory("Registry"))

	if err := c.registerFrameworkSingletons(); err != nil {
		return err
	}

	if err := processor.InvokeFactoryProcessors(c.registry, c.factoryProcessors); err != nil {
		return fmt.Errorf("container: factory processor orchestration failed: %w", err)
	}

	if err := processor.RegisterHooks(c.registry, c, c.logger.WithCategory("Hooks")); err != nil {
		return fmt.Errorf("container: hook registration failed: %w", err)
	}

	if err := c.registry.PreInstantiateSingletons(); err != nil {
		return fmt.Errorf("container: singleton pre-instantiation failed: %w", err)
	}

	if err := c.collectHostedServices(); err != nil {
		return err
	}

	c.refreshed = true
	c.logger.Info("Application context refreshed",
		logging.Field{Key: "definitions", Value: c.registry.DefinitionCount()},
		logging.Field{Key: "hooks", Value: c.registry.HookCount()})
	c.multicaster.Multicast(&RefreshedEvent{Context: c})
	return nil
}

// registerFrameworkSingletons 把配置、日志、环境和上下文自身注册为单例。
func (c *ApplicationContext) registerFrameworkSingletons() error {
	singletons := map[string]any{
		ContextComponentName:       c,
		ConfigurationComponentName: c.configuration,
		LoggerComponentName:        c.logger,
		LoggerFactoryComponentName: c.loggerFactory,
		EnvironmentComponentName:   c.environment,
	}
	for _, name := range []string{
		ContextComponentName,
		ConfigurationComponentName,
		LoggerComponentName,
		LoggerFactoryComponentName,
		EnvironmentComponentName,
	} {
		if c.registry.ContainsSingleton(name) {
			continue
		}
		if err := c.registry.RegisterSingleton(name, singletons[name]); err != nil {
			return err
		}
	}
	return nil
}

// collectHostedServices 从注册表中发现托管服务并登记到管理器。
// 构建阶段直接登记的实例同时注册为单例时只登记一次。
func (c *ApplicationContext) collectHostedServices() error {
	seen := make(map[hosting.HostedService]bool, len(c.hostedServices))
	for _, svc := range c.hostedServices {
		c.manager.Add(svc)
		seen[svc] = true
	}
	for _, name := range c.registry.NamesForType(hostedServiceType) {
		instance, err := c.registry.Get(name)
		if err != nil {
			return fmt.Errorf("container: cannot resolve hosted service '%s': %w", name, err)
		}
		svc, ok := instance.(hosting.HostedService)
		if !ok || seen[svc] {
			continue
		}
		c.manager.Add(svc)
		seen[svc] = true
	}
	return nil
}

// DetectListener 检查创建完成的实例是否是事件监听器。
// 只有顶层单例组件会被登记；内嵌组件的监听器无法参与事件分发，
// 只记一条日志提醒。
func (c *ApplicationContext) DetectListener(instance any, name string) {
	listener, ok := instance.(EventListener)
	if !ok {
		return
	}
	if def, exists := c.registry.GetDefinition(name); exists && def.IsSingleton() {
		c.multicaster.AddListener(listener)
		return
	}
	if c.registry.ContainsSingleton(name) {
		c.multicaster.AddListener(listener)
		return
	}
	c.logger.Debug("Inner or prototype component implements EventListener but will not receive events",
		logging.Field{Key: "name", Value: name})
}

// PublishEvent 向所有已登记的监听器同步发布事件
func (c *ApplicationContext) PublishEvent(event Event) {
	c.multicaster.Multicast(event)
}

// Get 按名字获取组件实例
func (c *ApplicationContext) Get(name string) (any, error) {
	return c.registry.Get(name)
}

// GetService 按指针参数的类型解析组件并写入指针。
//
//	var svc *OrderService
//	if err := ctx.GetService(&svc); err != nil { ... }
func (c *ApplicationContext) GetService(ptr any) error {
	ptrValue := reflect.ValueOf(ptr)
	if ptrValue.Kind() != reflect.Pointer || ptrValue.IsNil() {
		return fmt.Errorf("container: GetService argument must be a non-nil pointer, got %T", ptr)
	}
	elem := ptrValue.Elem()

	names := c.registry.NamesForType(elem.Type())
	if len(names) == 0 {
		return &registry.NoSuchComponentError{Type: elem.Type()}
	}
	if len(names) > 1 {
		return &registry.TypeMismatchError{Expected: elem.Type(), Candidates: names}
	}
	instance, err := c.registry.GetTyped(names[0], elem.Type())
	if err != nil {
		return err
	}
	if instance != nil {
		elem.Set(reflect.ValueOf(instance))
	}
	return nil
}

// Start 启动所有托管服务，返回收集启动错误的通道。
func (c *ApplicationContext) Start(ctx context.Context) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.refreshed {
		return nil, errors.New("container: context must be refreshed before starting")
	}
	if c.running {
		return nil, errors.New("container: context is already running")
	}
	c.running = true
	errCh := c.manager.StartAll(ctx)
	c.multicaster.Multicast(&StartedEvent{Context: c})
	return errCh, nil
}

// Stop 停止托管服务、执行清理函数并销毁所有单例。
func (c *ApplicationContext) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.manager.StopAll(ctx); err != nil {
		c.logger.Error("Failed to stop hosted services",
			logging.Field{Key: "error", Value: err.Error()})
	}
	c.manager.Wait()

	// 清理函数按登记顺序的逆序执行
	for i := len(c.cleanupOrder) - 1; i >= 0; i-- {
		key := c.cleanupOrder[i]
		c.logger.Debug("Running cleanup", logging.Field{Key: "key", Value: key})
		c.cleanups[key]()
	}
	c.cleanups = make(map[string]func())
	c.cleanupOrder = nil

	c.registry.DestroySingletons()
	c.running = false
	c.multicaster.Multicast(&StoppedEvent{Context: c})
	c.logger.Info("Application context stopped")
	return nil
}

// RequestStop 请求退出 Run 的阻塞循环
func (c *ApplicationContext) RequestStop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Run 启动托管服务并阻塞，直到收到退出信号、RequestStop 或服务失败。
// 返回前执行优雅关闭。
func (c *ApplicationContext) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh, err := c.Start(runCtx)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		c.logger.Info("Received shutdown signal",
			logging.Field{Key: "signal", Value: sig.String()})
	case <-c.stopCh:
		c.logger.Info("Stop requested")
	case <-ctx.Done():
		c.logger.Info("Context cancelled")
	case err := <-errCh:
		c.logger.Error("Hosted service failed, shutting down",
			logging.Field{Key: "error", Value: err.Error()})
		runErr = err
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer shutdownCancel()

	if err := c.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
