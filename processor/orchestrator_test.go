package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/registry"
)

// trace 在多个处理器之间共享，记录回调的触发顺序
type trace struct {
	events []string
}

func (t *trace) add(event string) {
	t.events = append(t.events, event)
}

type priorityRegistryProcessor struct {
	trace *trace
	order int
}

func (p *priorityRegistryProcessor) IsPriorityOrdered() {}
func (p *priorityRegistryProcessor) Order() int         { return p.order }

func (p *priorityRegistryProcessor) PostProcessRegistry(reg registry.ConfigurableRegistry) error {
	p.trace.add("priority:registry")
	return nil
}

func (p *priorityRegistryProcessor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	p.trace.add("priority:factory")
	return nil
}

type plainRegistryProcessor struct {
	trace *trace
	label string
	// onRegistry 给测试注入副作用，比如注册新的处理器定义
	onRegistry func(reg registry.ConfigurableRegistry)
}

func (p *plainRegistryProcessor) PostProcessRegistry(reg registry.ConfigurableRegistry) error {
	p.trace.add(p.label + ":registry")
	if p.onRegistry != nil {
		p.onRegistry(reg)
	}
	return nil
}

func (p *plainRegistryProcessor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	p.trace.add(p.label + ":factory")
	return nil
}

type plainFactoryProcessor struct {
	trace *trace
	label string
}

func (p *plainFactoryProcessor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	p.trace.add(p.label + ":factory")
	return nil
}

func registerProcessor(t *testing.T, reg registry.ConfigurableRegistry, name string, factory any) {
	t.Helper()
	err := reg.RegisterDefinition(name, &definition.Descriptor{
		Factory: factory,
		Scope:   definition.ScopeSingleton,
		Role:    definition.RoleInfrastructure,
	})
	require.NoError(t, err)
}

func TestPriorityProcessorsRunBeforeUnordered(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	registerProcessor(t, reg, "plain", func() *plainRegistryProcessor {
		return &plainRegistryProcessor{trace: shared, label: "plain"}
	})
	registerProcessor(t, reg, "priority", func() *priorityRegistryProcessor {
		return &priorityRegistryProcessor{trace: shared}
	})

	err := InvokeFactoryProcessors(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"priority:registry",
		"plain:registry",
		"priority:factory",
		"plain:factory",
	}, shared.events)
}

func TestRegistryCallbacksRunBeforeAnyFactoryCallback(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	// 第一个处理器在注册表回调里注册第二个处理器;
	// 新注册的处理器必须在任何工厂回调之前被发现并执行注册表回调
	registerProcessor(t, reg, "first", func() *plainRegistryProcessor {
		return &plainRegistryProcessor{
			trace: shared,
			label: "first",
			onRegistry: func(r registry.ConfigurableRegistry) {
				registerProcessor(t, r, "second", func() *plainRegistryProcessor {
					return &plainRegistryProcessor{trace: shared, label: "second"}
				})
			},
		}
	})

	err := InvokeFactoryProcessors(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first:registry",
		"second:registry",
		"first:factory",
		"second:factory",
	}, shared.events)
}

func TestExternalProcessorsKeepInputOrder(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	registerProcessor(t, reg, "discovered", func() *plainRegistryProcessor {
		return &plainRegistryProcessor{trace: shared, label: "discovered"}
	})

	external := []FactoryProcessor{
		&plainRegistryProcessor{trace: shared, label: "extRegistry"},
		&plainFactoryProcessor{trace: shared, label: "extPlain"},
	}
	err := InvokeFactoryProcessors(reg, external)
	require.NoError(t, err)

	// 外部注册表变更型处理器立即执行，外部普通处理器排在
	// 所有注册表变更型处理器的工厂回调之后
	assert.Equal(t, []string{
		"extRegistry:registry",
		"discovered:registry",
		"extRegistry:factory",
		"discovered:factory",
		"extPlain:factory",
	}, shared.events)
}

func TestDiscoveredFactoryOnlyProcessorsRunLast(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	registerProcessor(t, reg, "factoryOnly", func() *plainFactoryProcessor {
		return &plainFactoryProcessor{trace: shared, label: "factoryOnly"}
	})
	registerProcessor(t, reg, "registryFull", func() *plainRegistryProcessor {
		return &plainRegistryProcessor{trace: shared, label: "registryFull"}
	})

	err := InvokeFactoryProcessors(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"registryFull:registry",
		"registryFull:factory",
		"factoryOnly:factory",
	}, shared.events)
}

func TestInvokeClearsMergedDefinitionCache(t *testing.T) {
	reg := registry.NewStandardRegistry()

	def := &definition.Descriptor{Factory: func() *trace { return &trace{} }}
	require.NoError(t, reg.RegisterDefinition("svc", def))
	first, err := reg.MergedDefinition("svc", def, nil)
	require.NoError(t, err)

	require.NoError(t, InvokeFactoryProcessors(reg, nil))

	second, err := reg.MergedDefinition("svc", def, nil)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "metadata cache must be cleared after orchestration")
}

type orderedFactoryProcessor struct {
	trace *trace
	label string
	order int
}

func (p *orderedFactoryProcessor) Order() int { return p.order }

func (p *orderedFactoryProcessor) PostProcessFactory(reg registry.ConfigurableRegistry) error {
	p.trace.add(p.label)
	return nil
}

func TestOrderedFactoryProcessorsSortByOrderValue(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	registerProcessor(t, reg, "late", func() *orderedFactoryProcessor {
		return &orderedFactoryProcessor{trace: shared, label: "late", order: 10}
	})
	registerProcessor(t, reg, "early", func() *orderedFactoryProcessor {
		return &orderedFactoryProcessor{trace: shared, label: "early", order: 1}
	})

	err := InvokeFactoryProcessors(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"early", "late"}, shared.events)
}

func TestDefaultOrderComparatorHandlesExtremeValues(t *testing.T) {
	highest := &orderedFactoryProcessor{order: math.MinInt}
	low := &orderedFactoryProcessor{order: 1}
	negative := &orderedFactoryProcessor{order: -1}
	unordered := &plainFactoryProcessor{}

	assert.Negative(t, DefaultOrderComparator(highest, low))
	assert.Positive(t, DefaultOrderComparator(low, highest))
	assert.Positive(t, DefaultOrderComparator(unordered, negative))
	assert.Negative(t, DefaultOrderComparator(negative, unordered))
	assert.Zero(t, DefaultOrderComparator(low, low))
}

func TestLowestOrderValueFactoryProcessorRunsFirst(t *testing.T) {
	reg := registry.NewStandardRegistry()
	shared := &trace{}

	registerProcessor(t, reg, "low", func() *orderedFactoryProcessor {
		return &orderedFactoryProcessor{trace: shared, label: "low", order: 1}
	})
	registerProcessor(t, reg, "highest", func() *orderedFactoryProcessor {
		return &orderedFactoryProcessor{trace: shared, label: "highest", order: math.MinInt}
	})

	err := InvokeFactoryProcessors(reg, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"highest", "low"}, shared.events)
}
