package beans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans"
	"github.com/gocrud/beans/configure"
	"github.com/gocrud/beans/configure/cron"
	"github.com/gocrud/beans/configure/mongodb"
	"github.com/gocrud/beans/configure/redis"
	"github.com/gocrud/beans/container"
)

func TestBuilderAssemblesConfigureModules(t *testing.T) {
	ctx, err := beans.NewBuilder().
		UseEnvironment("staging").
		Configure(
			configure.Redis(func(b *redis.Builder) {
				b.AddClient("cache", nil)
			}),
			configure.Mongo(func(b *mongodb.Builder) {
				b.AddClient("docs", "mongodb://localhost:27017", nil)
			}),
			configure.Cron(func(b *cron.Builder) {
				b.AddJob("@hourly", "cleanup", func() {})
			}),
		).
		Build()
	require.NoError(t, err)
	require.NoError(t, ctx.Refresh())

	reg := ctx.Registry()

	// 处理器编排把客户端工厂和延迟定义都登记到了注册表
	assert.True(t, reg.ContainsSingleton(redis.FactoryComponentName))
	assert.True(t, reg.ContainsDefinition(redis.ComponentName("cache")))
	assert.True(t, reg.ContainsSingleton(mongodb.FactoryComponentName))
	assert.True(t, reg.ContainsDefinition(mongodb.ComponentName("docs")))
	assert.True(t, reg.ContainsSingleton(cron.ServiceComponentName))

	var factory *redis.ClientFactory
	require.NoError(t, ctx.GetService(&factory))
	assert.Equal(t, []string{"cache"}, factory.Names())

	assert.True(t, ctx.Environment().IsStaging())
}

func TestEmptyConfiguratorsLeaveRegistryClean(t *testing.T) {
	ctx, err := beans.NewBuilder().
		Configure(
			configure.Redis(nil),
			configure.Database(nil),
			configure.Mongo(nil),
		).
		Build()
	require.NoError(t, err)
	require.NoError(t, ctx.Refresh())

	reg := ctx.Registry()
	assert.False(t, reg.ContainsSingleton(redis.FactoryComponentName))
	assert.False(t, reg.ContainsSingleton(mongodb.FactoryComponentName))
}

func TestConfiguratorCanRegisterComponents(t *testing.T) {
	type clock interface{ Now() int64 }

	ctx, err := beans.NewBuilder().
		Configure(func(b *container.BuildContext) {
			require.NoError(t, container.AddSingleton[clock](b, "clock", func() *fixedClock {
				return &fixedClock{at: 42}
			}))
		}).
		Build()
	require.NoError(t, err)
	require.NoError(t, ctx.Refresh())

	var c clock
	require.NoError(t, ctx.GetService(&c))
	assert.Equal(t, int64(42), c.Now())
}

type fixedClock struct {
	at int64
}

func (c *fixedClock) Now() int64 { return c.at }
