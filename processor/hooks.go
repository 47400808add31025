package processor

import (
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
	"github.com/gocrud/beans/registry"
)

// ListenerRegistrar 容器上下文暴露给编排器的监听器探测能力。
// 编排器在钩子链末尾安装一个固定钩子，把每个创建完成的实例交给它检查。
type ListenerRegistrar interface {
	DetectListener(instance any, name string)
}

// RegisterHooks 执行实例化后置钩子的注册阶段。
//
// 先安装诊断钩子，再按最高优先级、有序、未声明顺序三个层次
// 实例化并安装发现的钩子。每一步安装都立即生效，后面层次的
// 钩子在实例化时会经过前面已安装的钩子。
// 感知合并描述符的内部钩子最后重新安装一遍，保证它们能观察到
// 其他钩子产生的代理和包装。最末尾是固定的监听器探测钩子。
func RegisterHooks(reg registry.ConfigurableRegistry, registrar ListenerRegistrar, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}

	names := reg.NamesForType(hookType)

	// 目标数量 = 当前已装钩子 + 诊断钩子自身 + 本次发现的钩子。
	// 诊断只是告警，不影响正确性。
	target := reg.HookCount() + 1 + len(names)
	reg.AddHook(&checkerHook{reg: reg, logger: logger, target: target})

	var priorityHooks []registry.Hook
	var internalHooks []registry.Hook
	var orderedNames []string
	var unorderedNames []string

	for _, name := range names {
		switch {
		case reg.IsTypeMatch(name, priorityOrderedType):
			h, err := processorByName[registry.Hook](reg, name)
			if err != nil {
				return err
			}
			priorityHooks = append(priorityHooks, h)
			if mdh, ok := h.(registry.MergedDefinitionHook); ok {
				internalHooks = append(internalHooks, mdh)
			}
		case reg.IsTypeMatch(name, orderedType):
			orderedNames = append(orderedNames, name)
		default:
			unorderedNames = append(unorderedNames, name)
		}
	}

	sortByOrder(priorityHooks, reg)
	for _, h := range priorityHooks {
		reg.AddHook(h)
	}

	var orderedHooks []registry.Hook
	for _, name := range orderedNames {
		h, err := processorByName[registry.Hook](reg, name)
		if err != nil {
			return err
		}
		orderedHooks = append(orderedHooks, h)
		if mdh, ok := h.(registry.MergedDefinitionHook); ok {
			internalHooks = append(internalHooks, mdh)
		}
	}
	sortByOrder(orderedHooks, reg)
	for _, h := range orderedHooks {
		reg.AddHook(h)
	}

	for _, name := range unorderedNames {
		h, err := processorByName[registry.Hook](reg, name)
		if err != nil {
			return err
		}
		if mdh, ok := h.(registry.MergedDefinitionHook); ok {
			internalHooks = append(internalHooks, mdh)
		}
		reg.AddHook(h)
	}

	// 内部钩子移到链尾
	sortByOrder(internalHooks, reg)
	for _, h := range internalHooks {
		reg.AddHook(h)
	}

	if registrar != nil {
		reg.AddHook(&listenerDetector{registrar: registrar})
	}
	return nil
}

// checkerHook 诊断钩子。
// 某个实例创建时钩子链还没有达到预期长度，说明它创建得太早，
// 无法被所有钩子处理（例如错过了代理包装），记一条日志提醒。
type checkerHook struct {
	reg    registry.ConfigurableRegistry
	logger logging.Logger
	target int
}

func (c *checkerHook) BeforeInit(instance any, name string) (any, error) {
	return instance, nil
}

func (c *checkerHook) AfterInit(instance any, name string) (any, error) {
	if _, isHook := instance.(registry.Hook); !isHook &&
		c.reg.HookCount() < c.target &&
		!registry.IsInnerComponentName(name) && !c.isInfrastructure(name) {
		c.logger.Info("Component is not eligible for getting processed by all hooks",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "hookCount", Value: c.reg.HookCount()},
			logging.Field{Key: "expected", Value: c.target})
	}
	return instance, nil
}

func (c *checkerHook) isInfrastructure(name string) bool {
	def, ok := c.reg.GetDefinition(name)
	return ok && def.Role == definition.RoleInfrastructure
}

// listenerDetector 固定安装在钩子链末尾的监听器探测钩子。
type listenerDetector struct {
	registrar ListenerRegistrar
}

func (d *listenerDetector) BeforeInit(instance any, name string) (any, error) {
	return instance, nil
}

func (d *listenerDetector) AfterInit(instance any, name string) (any, error) {
	d.registrar.DetectListener(instance, name)
	return instance, nil
}
