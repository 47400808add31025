package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/gocrud/beans/container"
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// FactoryComponentName 客户端工厂在注册表中的组件名
const FactoryComponentName = "mongoClientFactory"

// ComponentName 返回命名客户端的组件名
func ComponentName(name string) string {
	return "mongodb." + name
}

// Builder MongoDB 配置构建器
type Builder struct {
	configs []Options
}

// NewBuilder 创建 MongoDB 构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddClient 添加一个 MongoDB 客户端配置，配置非法时 panic。
func (b *Builder) AddClient(name string, uri string, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("invalid mongo configuration for '%s': %v", name, err))
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Processor 向注册表登记 MongoDB 组件:
// 工厂注册为单例，每个命名客户端注册为延迟创建的基础设施组件。
type Processor struct {
	configs []Options
	logger  logging.Logger
}

// IsPriorityOrdered 基础设施组件先于普通扩展注册
func (p *Processor) IsPriorityOrdered() {}

func (p *Processor) Order() int { return 0 }

func (p *Processor) PostProcessRegistry(reg registry.ConfigurableRegistry) error {
	factory := NewFactory(p.configs...)
	if err := reg.RegisterSingleton(FactoryComponentName, factory); err != nil {
		return err
	}

	for _, opts := range p.configs {
		clientName := opts.Name
		err := reg.RegisterDefinition(ComponentName(clientName), &definition.Descriptor{
			Factory: func() (*mongo.Client, error) {
				return factory.GetOrCreate(clientName)
			},
			Scope: definition.ScopeSingleton,
			Role:  definition.RoleInfrastructure,
			Lazy:  true,
		})
		if err != nil {
			return err
		}
		p.logger.Info("Mongo client registered",
			logging.Field{Key: "name", Value: clientName})
	}
	return nil
}

func (p *Processor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	return nil
}

// Configure 返回 MongoDB 配置器。
// 使用示例: builder.Configure(mongodb.Configure(func(b *mongodb.Builder) { ... }))
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
			logger:  ctx.GetLogger().WithCategory("Mongo"),
		}
		err := ctx.RegisterDefinition("mongoConfigurationProcessor", &definition.Descriptor{
			Factory: func() *Processor { return proc },
			Scope:   definition.ScopeSingleton,
			Role:    definition.RoleInfrastructure,
		})
		if err != nil {
			ctx.GetLogger().Fatal("Failed to register mongo configuration processor",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
