package cron

import (
	"github.com/gocrud/beans/container"
	"github.com/gocrud/beans/logging"
)

// ServiceComponentName Cron 服务在注册表中的组件名
const ServiceComponentName = "cronService"

// Builder Cron 配置构建器
type Builder struct {
	options ServiceOptions
	jobs    []jobSpec
}

type jobSpec struct {
	spec string
	name string
	job  func()
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.options.EnableSeconds = true
	return b
}

// AddJob 添加定时任务
func (b *Builder) AddJob(spec, name string, job func()) *Builder {
	b.jobs = append(b.jobs, jobSpec{spec: spec, name: name, job: job})
	return b
}

// Configure 返回 Cron 配置器。
// 服务实例注册为单例并登记为托管服务，容器启动时开始调度。
func Configure(options func(*Builder)) container.Configurator {
	return func(ctx *container.BuildContext) {
		b := NewBuilder()
		if options != nil {
			options(b)
		}

		logger := ctx.GetLogger().WithCategory("Cron")
		service := NewService(logger, b.options)
		for _, j := range b.jobs {
			if err := service.AddJob(j.spec, j.name, j.job); err != nil {
				logger.Fatal("Failed to register cron job",
					logging.Field{Key: "name", Value: j.name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}

		if err := ctx.RegisterInstance(ServiceComponentName, service); err != nil {
			logger.Fatal("Failed to register cron service",
				logging.Field{Key: "error", Value: err.Error()})
		}
		ctx.AddHostedService(service)
	}
}
