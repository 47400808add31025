package redis

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gocrud/beans/container"
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// FactoryComponentName 客户端工厂在注册表中的组件名
const FactoryComponentName = "redisClientFactory"

// ComponentName 返回命名客户端的组件名
func ComponentName(name string) string {
	return "redis." + name
}

// Builder Redis 客户端配置构建器
type Builder struct {
	configs []Options
}

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个 Redis 客户端配置，配置非法时 panic。
func (b *Builder) AddClient(name string, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("invalid redis configuration for '%s': %v", name, err))
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Processor 在普通组件实例化之前向注册表登记 Redis 组件:
// 客户端工厂注册为单例，每个命名客户端注册为延迟创建的基础设施组件。
type Processor struct {
	configs []Options
	logger  logging.Logger
}

// IsPriorityOrdered 基础设施组件先于普通扩展注册
func (p *Processor) IsPriorityOrdered() {}

func (p *Processor) Order() int { return 0 }

func (p *Processor) PostProcessRegistry(reg registry.ConfigurableRegistry) error {
	factory := NewClientFactory(p.configs...)
	if err := reg.RegisterSingleton(FactoryComponentName, factory); err != nil {
		return err
	}

	for _, opts := range p.configs {
		clientName := opts.Name
		err := reg.RegisterDefinition(ComponentName(clientName), &definition.Descriptor{
			Factory: func() (*goredis.Client, error) {
				return factory.GetOrCreate(clientName)
			},
			Scope: definition.ScopeSingleton,
			Role:  definition.RoleInfrastructure,
			Lazy:  true,
		})
		if err != nil {
			return err
		}
		p.logger.Info("Redis client registered",
			logging.Field{Key: "name", Value: clientName},
			logging.Field{Key: "addr", Value: opts.Addr},
			logging.Field{Key: "db", Value: opts.DB})
	}
	return nil
}

func (p *Processor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	return nil
}

// Configure 返回 Redis 配置器。
// 使用示例: builder.Configure(redis.Configure(func(b *redis.Builder) { ... }))
func Configure(options func(*Builder)) container.Configurator {
	return func(ctx *container.BuildContext) {
		b := NewBuilder()
		if options != nil {
			options(b)
		}
		if len(b.configs) == 0 {
			return
		}

		proc := &Processor{
			configs: b.configs,
			logger:  ctx.GetLogger().WithCategory("Redis"),
		}
		err := ctx.RegisterDefinition("redisConfigurationProcessor", &definition.Descriptor{
			Factory: func() *Processor { return proc },
			Scope:   definition.ScopeSingleton,
			Role:    definition.RoleInfrastructure,
		})
		if err != nil {
			ctx.GetLogger().Fatal("Failed to register redis configuration processor",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
