package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

func TestOptionsValidate(t *testing.T) {
	opts := NewDefaultOptions("docs", "mongodb://localhost:27017")
	require.NoError(t, opts.Validate())
	assert.Equal(t, uint64(100), opts.MaxPoolSize)
	assert.Equal(t, 10*time.Second, opts.Timeout)

	assert.Error(t, NewDefaultOptions("", "mongodb://localhost:27017").Validate())
	assert.Error(t, NewDefaultOptions("docs", "").Validate())
}

func TestBuilderRejectsInvalidConfiguration(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().AddClient("docs", "", nil)
	})
}

func TestFactoryRejectsUnknownClient(t *testing.T) {
	factory := NewFactory(*NewDefaultOptions("docs", "mongodb://localhost:27017"))
	_, err := factory.GetOrCreate("other")
	assert.ErrorContains(t, err, "not configured")
}

func TestFactoryCloseWithoutClients(t *testing.T) {
	factory := NewFactory(*NewDefaultOptions("docs", "mongodb://localhost:27017"))
	assert.NoError(t, factory.Close())
}

func TestProcessorRegistersLazyDefinitions(t *testing.T) {
	reg := registry.NewStandardRegistry()
	proc := &Processor{
		configs: []Options{*NewDefaultOptions("docs", "mongodb://localhost:27017")},
		logger:  logging.Nop(),
	}
	require.NoError(t, proc.PostProcessRegistry(reg))

	assert.True(t, reg.ContainsSingleton(FactoryComponentName))
	def, ok := reg.GetDefinition(ComponentName("docs"))
	require.True(t, ok)
	assert.True(t, def.Lazy)
	assert.Equal(t, definition.RoleInfrastructure, def.Role)

	// 延迟定义不触发真实连接
	require.NoError(t, reg.PreInstantiateSingletons())
}
