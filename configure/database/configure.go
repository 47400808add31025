package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gocrud/beans/container"
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// FactoryComponentName 数据库工厂在注册表中的组件名
const FactoryComponentName = "databaseFactory"

// ComponentName 返回命名数据库的组件名
func ComponentName(name string) string {
	return "database." + name
}

// Builder 数据库配置构建器
type Builder struct {
	configs []Options
}

// NewBuilder 创建数据库构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// AddDatabase 添加一个数据库配置，配置非法时 panic。
func (b *Builder) AddDatabase(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("invalid database configuration for '%s': %v", name, err))
	}
	b.configs = append(b.configs, *opts)
	return b
}

// Processor 向注册表登记数据库组件:
// 工厂注册为单例，每个命名数据库注册为延迟创建的基础设施组件。
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
		dbName := opts.Name
		err := reg.RegisterDefinition(ComponentName(dbName), &definition.Descriptor{
			Factory: func() (*gorm.DB, error) {
				return factory.GetOrCreate(dbName)
			},
			Scope: definition.ScopeSingleton,
			Role:  definition.RoleInfrastructure,
			Lazy:  true,
		})
		if err != nil {
			return err
		}
		p.logger.Info("Database registered",
			logging.Field{Key: "name", Value: dbName})
	}
	return nil
}

func (p *Processor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	return nil
}

// Configure 返回数据库配置器。
// 使用示例: builder.Configure(database.Configure(func(b *database.Builder) { ... }))
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
			logger:  ctx.GetLogger().WithCategory("Database"),
		}
		err := ctx.RegisterDefinition("databaseConfigurationProcessor", &definition.Descriptor{
			Factory: func() *Processor { return proc },
			Scope:   definition.ScopeSingleton,
			Role:    definition.RoleInfrastructure,
		})
		if err != nil {
			ctx.GetLogger().Fatal("Failed to register database configuration processor",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
