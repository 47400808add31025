package processor

import (
	"math"
	"sort"

	"github.com/gocrud/beans/registry"
)

// FactoryProcessor 工厂变更型扩展处理器。
// 在所有描述符加载完成之后、普通组件实例化之前运行，
// 可以修改已注册描述符的属性值（例如占位符替换）。
type FactoryProcessor interface {
	PostProcessFactory(reg registry.ConfigurableRegistry) error
}

// RegistryProcessor 注册表变更型扩展处理器。
// 比 FactoryProcessor 更早运行，可以注册或移除描述符本身，
// 包括注册新的扩展处理器。
type RegistryProcessor interface {
	FactoryProcessor

	PostProcessRegistry(reg registry.ConfigurableRegistry) error
}

// Ordered 声明了执行顺序的扩展。值越小越先执行。
type Ordered interface {
	Order() int
}

// PriorityOrdered 最高优先级标记。
// 实现它的扩展总是先于普通 Ordered 扩展和未声明顺序的扩展执行。
type PriorityOrdered interface {
	Ordered

	// IsPriorityOrdered 标记方法，无行为。
	IsPriorityOrdered()
}

// orderOf 返回扩展声明的顺序值，未声明时排在最后。
func orderOf(v any) int {
	if ordered, ok := v.(Ordered); ok {
		return ordered.Order()
	}
	return math.MaxInt
}

// DefaultOrderComparator 默认排序比较器:
// 按声明的顺序值升序，未声明顺序的排在最后，相等时保持稳定。
func DefaultOrderComparator(a, b any) int {
	oa, ob := orderOf(a), orderOf(b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	default:
		return 0
	}
}

// sortByOrder 按注册表配置的比较器排序，未配置时用默认比较器。
// 排序是稳定的，相等顺序值保持原有相对位置。
func sortByOrder[T any](items []T, reg registry.ConfigurableRegistry) {
	cmp := reg.OrderComparator()
	if cmp == nil {
		cmp = DefaultOrderComparator
	}
	sort.SliceStable(items, func(i, j int) bool {
		return cmp(items[i], items[j]) < 0
	})
}
