package processor

import (
	"fmt"
	"reflect"

	"github.com/gocrud/beans/registry"
)

var (
	factoryProcessorType  = reflect.TypeOf((*FactoryProcessor)(nil)).Elem()
	registryProcessorType = reflect.TypeOf((*RegistryProcessor)(nil)).Elem()
	priorityOrderedType   = reflect.TypeOf((*PriorityOrdered)(nil)).Elem()
	orderedType           = reflect.TypeOf((*Ordered)(nil)).Elem()
	hookType              = reflect.TypeOf((*registry.Hook)(nil)).Elem()
)

// InvokeFactoryProcessors 执行工厂变更阶段的编排。
//
// 注册表变更型处理器先于工厂变更型处理器运行，且分三轮:
// 最高优先级、有序、其余。第三轮反复扫描直到不再发现新的处理器，
// 因为一个处理器可能在回调中注册新的处理器。
// 所有注册表变更型处理器的工厂回调都先于外部传入的普通处理器执行。
func InvokeFactoryProcessors(reg registry.ConfigurableRegistry, external []FactoryProcessor) error {
	processed := make(map[string]bool)

	var regularProcessors []FactoryProcessor
	var registryProcessors []RegistryProcessor

	// 外部传入的注册表变更型处理器立即执行，顺序为传入顺序
	for _, p := range external {
		if rp, ok := p.(RegistryProcessor); ok {
			if err := rp.PostProcessRegistry(reg); err != nil {
				return err
			}
			registryProcessors = append(registryProcessors, rp)
		} else {
			regularProcessors = append(regularProcessors, p)
		}
	}

	var current []RegistryProcessor

	// 第一轮: 最高优先级
	for _, name := range reg.NamesForType(registryProcessorType) {
		if reg.IsTypeMatch(name, priorityOrderedType) {
			rp, err := processorByName[RegistryProcessor](reg, name)
			if err != nil {
				return err
			}
			current = append(current, rp)
			processed[name] = true
		}
	}
	sortByOrder(current, reg)
	registryProcessors = append(registryProcessors, current...)
	if err := invokeRegistryProcessors(current, reg); err != nil {
		return err
	}
	current = nil

	// 第二轮: 有序
	for _, name := range reg.NamesForType(registryProcessorType) {
		if !processed[name] && reg.IsTypeMatch(name, orderedType) {
			rp, err := processorByName[RegistryProcessor](reg, name)
			if err != nil {
				return err
			}
			current = append(current, rp)
			processed[name] = true
		}
	}
	sortByOrder(current, reg)
	registryProcessors = append(registryProcessors, current...)
	if err := invokeRegistryProcessors(current, reg); err != nil {
		return err
	}
	current = nil

	// 第三轮: 反复扫描剩余的处理器，直到一整轮没有新发现为止。
	// 轮数以当前描述符总数为上限，不收敛视为致命的启动错误。
	passes := 0
	for reiterate := true; reiterate; {
		reiterate = false
		passes++
		if passes > reg.DefinitionCount()+1 {
			return fmt.Errorf("processor: registry processor discovery did not converge after %d passes", passes)
		}
		for _, name := range reg.NamesForType(registryProcessorType) {
			if processed[name] {
				continue
			}
			rp, err := processorByName[RegistryProcessor](reg, name)
			if err != nil {
				return err
			}
			current = append(current, rp)
			processed[name] = true
			reiterate = true
		}
		sortByOrder(current, reg)
		registryProcessors = append(registryProcessors, current...)
		if err := invokeRegistryProcessors(current, reg); err != nil {
			return err
		}
		current = nil
	}

	// 工厂回调: 注册表变更型处理器在前，外部普通处理器在后
	for _, rp := range registryProcessors {
		if err := rp.PostProcessFactory(reg); err != nil {
			return err
		}
	}
	for _, p := range regularProcessors {
		if err := p.PostProcessFactory(reg); err != nil {
			return err
		}
	}

	// 注册表中发现的工厂变更型处理器，按优先级层次执行
	var priorityProcessors []FactoryProcessor
	var orderedNames []string
	var unorderedNames []string
	for _, name := range reg.NamesForType(factoryProcessorType) {
		if processed[name] {
			continue
		}
		switch {
		case reg.IsTypeMatch(name, priorityOrderedType):
			p, err := processorByName[FactoryProcessor](reg, name)
			if err != nil {
				return err
			}
			priorityProcessors = append(priorityProcessors, p)
		case reg.IsTypeMatch(name, orderedType):
			orderedNames = append(orderedNames, name)
		default:
			unorderedNames = append(unorderedNames, name)
		}
	}

	sortByOrder(priorityProcessors, reg)
	if err := invokeFactoryProcessors(priorityProcessors, reg); err != nil {
		return err
	}

	var orderedProcessors []FactoryProcessor
	for _, name := range orderedNames {
		p, err := processorByName[FactoryProcessor](reg, name)
		if err != nil {
			return err
		}
		orderedProcessors = append(orderedProcessors, p)
	}
	sortByOrder(orderedProcessors, reg)
	if err := invokeFactoryProcessors(orderedProcessors, reg); err != nil {
		return err
	}

	var unorderedProcessors []FactoryProcessor
	for _, name := range unorderedNames {
		p, err := processorByName[FactoryProcessor](reg, name)
		if err != nil {
			return err
		}
		unorderedProcessors = append(unorderedProcessors, p)
	}
	if err := invokeFactoryProcessors(unorderedProcessors, reg); err != nil {
		return err
	}

	// 处理器可能修改过描述符的声明值，缓存的合并结果已失效
	reg.ClearMetadataCache()
	return nil
}

// processorByName 通过注册表实例化处理器并断言其能力。
func processorByName[T any](reg registry.ConfigurableRegistry, name string) (T, error) {
	var zero T
	instance, err := reg.Get(name)
	if err != nil {
		return zero, err
	}
	p, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("processor: component '%s' is %T, expected %v",
			name, instance, reflect.TypeFor[T]())
	}
	return p, nil
}

func invokeRegistryProcessors(processors []RegistryProcessor, reg registry.ConfigurableRegistry) error {
	for _, p := range processors {
		if err := p.PostProcessRegistry(reg); err != nil {
			return err
		}
	}
	return nil
}

func invokeFactoryProcessors(processors []FactoryProcessor, reg registry.ConfigurableRegistry) error {
	for _, p := range processors {
		if err := p.PostProcessFactory(reg); err != nil {
			return err
		}
	}
	return nil
}
