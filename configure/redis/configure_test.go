package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

func TestProcessorRegistersLazyClientDefinitions(t *testing.T) {
	reg := registry.NewStandardRegistry()
	proc := &Processor{
		configs: []Options{
			*NewDefaultOptions("cache"),
			*NewDefaultOptions("sessions"),
		},
		logger: logging.Nop(),
	}

	require.NoError(t, proc.PostProcessRegistry(reg))

	assert.True(t, reg.ContainsSingleton(FactoryComponentName))

	for _, name := range []string{"cache", "sessions"} {
		def, ok := reg.GetDefinition(ComponentName(name))
		require.True(t, ok, "missing definition for %s", name)
		assert.True(t, def.Lazy, "client components must not connect at startup")
		assert.Equal(t, definition.RoleInfrastructure, def.Role)
		assert.True(t, def.IsSingleton())
	}

	// 延迟定义不影响其余单例的预实例化
	require.NoError(t, reg.PreInstantiateSingletons())
}
