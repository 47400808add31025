package configure

import (
	"github.com/gocrud/beans/configure/cron"
	"github.com/gocrud/beans/configure/database"
	"github.com/gocrud/beans/configure/mongodb"
	"github.com/gocrud/beans/configure/redis"
	"github.com/gocrud/beans/configure/web"
	"github.com/gocrud/beans/container"
)

// Redis 便捷导出 redis 配置器
// 使用示例: builder.Configure(configure.Redis(func(b *redis.Builder) { ... }))
func Redis(options func(*redis.Builder)) container.Configurator {
	return redis.Configure(options)
}

// Database 便捷导出数据库配置器
// 使用示例: builder.Configure(configure.Database(func(b *database.Builder) { ... }))
func Database(options func(*database.Builder)) container.Configurator {
	return database.Configure(options)
}

// Mongo 便捷导出 MongoDB 配置器
// 使用示例: builder.Configure(configure.Mongo(func(b *mongodb.Builder) { ... }))
func Mongo(options func(*mongodb.Builder)) container.Configurator {
	return mongodb.Configure(options)
}

// Cron 便捷导出 cron 配置器
// 使用示例: builder.Configure(configure.Cron(func(b *cron.Builder) { ... }))
func Cron(options func(*cron.Builder)) container.Configurator {
	return cron.Configure(options)
}

// Web 便捷导出 web 配置器
// 使用示例: builder.Configure(configure.Web(func(b *web.Builder) { ... }))
func Web(options func(*web.Builder)) container.Configurator {
	return web.Configure(options)
}
