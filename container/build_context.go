package container

import (
	"reflect"

	"github.com/gocrud/beans/config"
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/hosting"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// BuildContext 构建上下文。
// 提供给配置器的装配环境，包含注册表、配置、日志和环境信息。
type BuildContext struct {
	registry      *registry.StandardRegistry
	configuration config.Configuration
	logger        logging.Logger
	environment   Environment
	appContext    *ApplicationContext

	hostedServices []hosting.HostedService
}

// Registry 返回底层注册表，配置器可以直接注册描述符或单例。
func (c *BuildContext) Registry() *registry.StandardRegistry {
	return c.registry
}

// GetConfiguration 获取配置对象
func (c *BuildContext) GetConfiguration() config.Configuration {
	return c.configuration
}

// GetLogger 获取日志记录器
func (c *BuildContext) GetLogger() logging.Logger {
	return c.logger
}

// GetEnvironment 获取环境信息
func (c *BuildContext) GetEnvironment() Environment {
	return c.environment
}

// AddHostedService 直接登记一个托管服务实例
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.hostedServices = append(c.hostedServices, service)
}

// SetCleanup 登记关闭时执行的清理函数
func (c *BuildContext) SetCleanup(key string, cleanup func()) {
	c.appContext.SetCleanup(key, cleanup)
}

// RegisterInstance 把现成实例注册为单例
func (c *BuildContext) RegisterInstance(name string, instance any) error {
	return c.registry.RegisterSingleton(name, instance)
}

// RegisterFactory 用工厂函数注册单例组件。
// 工厂签名为 func(...) T 或 func(...) (T, error)，参数通过描述符声明。
func (c *BuildContext) RegisterFactory(name string, factory any, args ...definition.Value) error {
	return c.registry.RegisterDefinition(name, &definition.Descriptor{
		Factory:         factory,
		ConstructorArgs: args,
		Scope:           definition.ScopeSingleton,
	})
}

// RegisterDefinition 注册完整的组件描述符
func (c *BuildContext) RegisterDefinition(name string, def *definition.Descriptor) error {
	return c.registry.RegisterDefinition(name, def)
}

// AddSingleton 用工厂函数把组件注册为单例，并登记 T 的类型名。
// T 通常是接口，工厂返回其实现。
func AddSingleton[T any](ctx *BuildContext, name string, factory any, args ...definition.Value) error {
	targetType := reflect.TypeOf((*T)(nil)).Elem()
	ctx.registry.RegisterTypeName(name, targetType)
	return ctx.registry.RegisterDefinition(name, &definition.Descriptor{
		Factory:         factory,
		ConstructorArgs: args,
		Scope:           definition.ScopeSingleton,
	})
}

// AddPrototype 用工厂函数把组件注册为原型，每次获取都创建新实例。
func AddPrototype[T any](ctx *BuildContext, name string, factory any, args ...definition.Value) error {
	targetType := reflect.TypeOf((*T)(nil)).Elem()
	ctx.registry.RegisterTypeName(name, targetType)
	return ctx.registry.RegisterDefinition(name, &definition.Descriptor{
		Factory:         factory,
		ConstructorArgs: args,
		Scope:           definition.ScopePrototype,
	})
}

// GetService 从注册表按类型解析组件，仅在装配阶段确有需要时使用。
func GetService[T any](ctx *BuildContext) (T, error) {
	var zero T
	targetType := reflect.TypeOf((*T)(nil)).Elem()
	names := ctx.registry.NamesForType(targetType)
	if len(names) == 0 {
		return zero, &registry.NoSuchComponentError{Type: targetType}
	}
	if len(names) > 1 {
		return zero, &registry.TypeMismatchError{Expected: targetType, Candidates: names}
	}
	instance, err := ctx.registry.GetTyped(names[0], targetType)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	return instance.(T), nil
}
