package registry

import (
	"reflect"

	"github.com/gocrud/beans/conversion"
	"github.com/gocrud/beans/definition"
)

// Hook 实例化后置钩子，围绕每个组件的创建被调用，可以包装或替换实例。
// 返回 nil 实例表示保持当前实例不变。
type Hook interface {
	// BeforeInit 在组件初始化回调之前调用。
	BeforeInit(instance any, name string) (any, error)
	// AfterInit 在组件初始化回调之后调用。
	AfterInit(instance any, name string) (any, error)
}

// MergedDefinitionHook 额外感知合并后描述符的钩子。
// 实现它的钩子被视为容器内部钩子，编排器会在最后重新安装它们，
// 以便它们能观察到其他钩子产生的代理和包装。
type MergedDefinitionHook interface {
	Hook
	// PostProcessMergedDefinition 在描述符合并完成后调用。
	PostProcessMergedDefinition(def *definition.Descriptor, name string)
}

// Evaluator 字符串表达式求值能力，由外部注入。
// 非表达式时必须原样返回输入。
type Evaluator interface {
	Evaluate(raw string, owner *definition.Descriptor) (any, error)
}

// Initializer 组件的初始化回调，在属性注入之后、AfterInit 钩子之前调用。
type Initializer interface {
	Init() error
}

// Factory 工厂风格的间接层：注册的是工厂，取用的是工厂产出的对象。
type Factory interface {
	// Object 返回工厂产出的实际对象。
	Object() (any, error)
}

// nullInstance 空值标记。注册表用它占位 nil 结果，调用方取到后转换回 nil。
type nullInstance struct{}

func (nullInstance) String() string { return "<null>" }

// NullInstance 注册表范围内唯一的空值标记实例。
var NullInstance any = nullInstance{}

// IsNullInstance 报告 v 是否为空值标记。
func IsNullInstance(v any) bool {
	_, ok := v.(nullInstance)
	return ok
}

// Registry 注册表的读取与协作能力面，值解析器只消费这个接口。
type Registry interface {
	// Get 按名字获取或创建组件实例。
	Get(name string) (any, error)
	// GetTyped 按名字获取组件实例并校验类型。
	GetTyped(name string, typ reflect.Type) (any, error)
	// Contains 报告名字是否对应已注册的描述符或单例。
	Contains(name string) bool
	// IsTypeMatch 报告名字对应的组件是否实现或匹配给定类型。
	IsTypeMatch(name string, typ reflect.Type) bool
	// NamesForType 返回声明类型匹配 typ 的所有组件名，按注册顺序。
	NamesForType(typ reflect.Type) []string
	// ResolveDependency 解析类型导向的注入点，参与解析的组件名追加到 resolvedNames。
	ResolveDependency(spec *definition.DependencySpec, requestingName string,
		resolvedNames *[]string, converter conversion.Converter) (any, error)
	// RegisterDependentComponent 记录依赖边: dependentName 依赖 dependencyName。
	RegisterDependentComponent(dependencyName, dependentName string)
	// RegisterContainedComponent 记录内嵌关系: containedName 被 containingName 包含。
	RegisterContainedComponent(containedName, containingName string)
	// CreateComponent 按描述符创建组件实例。
	CreateComponent(name string, def *definition.Descriptor, args []any) (any, error)
	// MergedDefinition 返回合并了父定义的描述符。
	MergedDefinition(name string, raw *definition.Descriptor,
		containing *definition.Descriptor) (*definition.Descriptor, error)
	// NameInUse 报告名字是否被描述符、单例或依赖关系占用。
	NameInUse(name string) bool
	// Parent 返回父注册表，没有时为 nil。
	Parent() Registry
	// AddHook 追加一个实例化后置钩子。已存在时先移除再追加到末尾。
	AddHook(h Hook)
	// HookCount 返回当前安装的钩子数量。
	HookCount() int
	// ClearMetadataCache 清除合并描述符与解析类型缓存。
	ClearMetadataCache()
}

// DefinitionRegistry 描述符注册能力面，注册表变更型扩展处理器消费它。
type DefinitionRegistry interface {
	// RegisterDefinition 注册组件描述符。名字已占用时返回错误。
	RegisterDefinition(name string, def *definition.Descriptor) error
	// RemoveDefinition 移除组件描述符。
	RemoveDefinition(name string) error
	// GetDefinition 返回名字对应的原始描述符。
	GetDefinition(name string) (*definition.Descriptor, bool)
	// ContainsDefinition 报告是否注册了该名字的描述符。
	ContainsDefinition(name string) bool
	// DefinitionNames 按注册顺序返回所有描述符名。
	DefinitionNames() []string
	// DefinitionCount 返回描述符总数。
	DefinitionCount() int
}

// ConfigurableRegistry 完整的可配置注册表，容器上下文持有它。
type ConfigurableRegistry interface {
	Registry
	DefinitionRegistry

	// RegisterSingleton 直接注册一个现成的单例实例。
	RegisterSingleton(name string, instance any) error
	// RegisterTypeName 登记类型名到类型的映射，供按名解析元素类型使用。
	RegisterTypeName(name string, typ reflect.Type)
	// SetParent 设置父注册表。
	SetParent(parent Registry)
	// SetConverter 设置类型转换器。
	SetConverter(converter conversion.Converter)
	// SetEvaluator 设置表达式求值器。
	SetEvaluator(evaluator Evaluator)
	// SetOrderComparator 设置扩展处理器排序比较器，nil 表示使用默认顺序。
	SetOrderComparator(cmp func(a, b any) int)
	// OrderComparator 返回当前的排序比较器，未设置时为 nil。
	OrderComparator() func(a, b any) int
	// PreInstantiateSingletons 预实例化所有非延迟单例。
	PreInstantiateSingletons() error
	// DestroySingletons 按依赖逆序销毁单例。
	DestroySingletons()
}
