package beans

import (
	"context"

	"github.com/gocrud/beans/container"
)

// NewBuilder 创建应用上下文构建器，这是装配容器的入口。
func NewBuilder() *container.Builder {
	return container.NewBuilder()
}

// Run 用给定的配置器装配容器，刷新后阻塞运行到退出信号。
//
//	err := beans.Run(
//		configure.Redis(func(b *redis.Builder) { ... }),
//		configure.Web(func(b *web.Builder) { ... }),
//	)
func Run(configurators ...container.Configurator) error {
	ctx, err := NewBuilder().Configure(configurators...).Build()
	if err != nil {
		return err
	}
	if err := ctx.Refresh(); err != nil {
		return err
	}
	return ctx.Run(context.Background())
}
