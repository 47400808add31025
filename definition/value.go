package definition

import (
	"reflect"
	"sync"
)

// Value 表示组件描述符中一个尚未解析的属性值或构造参数值。
// 它是一个封闭的标签联合：所有变体都在本包内实现 isValue()，
// 解析器按变体分派一次，而不是反复做类型探测。
type Value interface {
	isValue()
}

// TypedString 带类型的字符串字面量。
// 字符串可能是一个表达式（例如占位符），首次求值若发现结果与原文不同，
// 会通过 MarkDynamic 将其标记为动态，此后描述符持有者不再缓存转换结果。
type TypedString struct {
	Value string

	// TargetType 显式声明的目标类型，可以为 nil。
	TargetType reflect.Type

	// TargetTypeName 目标类型名，延迟解析。TargetType 优先。
	TargetTypeName string

	dynamic     bool
	dynamicOnce sync.Once
}

// NewTypedString 创建无目标类型的字符串字面量。
func NewTypedString(value string) *TypedString {
	return &TypedString{Value: value}
}

// NewTypedStringFor 创建带目标类型的字符串字面量。
func NewTypedStringFor(value string, targetType reflect.Type) *TypedString {
	return &TypedString{Value: value, TargetType: targetType}
}

// MarkDynamic 标记该字面量包含表达式，解析结果不可缓存。
// 只会生效一次，之后的调用是空操作。
func (t *TypedString) MarkDynamic() {
	t.dynamicOnce.Do(func() {
		t.dynamic = true
	})
}

// IsDynamic 报告该字面量是否已被证明包含表达式。
func (t *TypedString) IsDynamic() bool {
	return t.dynamic
}

// HasTargetType 报告是否已有解析好的目标类型。
func (t *TypedString) HasTargetType() bool {
	return t.TargetType != nil
}

func (t *TypedString) isValue() {}

// NameRef 对另一个组件"名字"的引用。
// 解析结果是经过存在性校验的组件名本身（字符串），而不是组件实例。
type NameRef struct {
	Name string
}

func (r *NameRef) isValue() {}

// ComponentRef 对另一个组件实例的运行时引用。
// Type 不为 nil 时按类型解析（此时 Name 仅用于诊断），否则按名字解析。
// ToParent 为 true 时必须从父注册表解析。
type ComponentRef struct {
	Name     string
	Type     reflect.Type
	ToParent bool
}

// NewComponentRef 创建按名字解析的组件引用。
func NewComponentRef(name string) *ComponentRef {
	return &ComponentRef{Name: name}
}

// NewTypedComponentRef 创建按类型解析的组件引用。
func NewTypedComponentRef(typ reflect.Type) *ComponentRef {
	return &ComponentRef{Type: typ}
}

func (r *ComponentRef) isValue() {}

// InnerComponent 内嵌的匿名组件描述符。
// 内部组件永远是非单例的匿名原型，声明的作用域会被忽略。
type InnerComponent struct {
	// Name 可选的声明名。为空时解析器会合成一个确定性的唯一名。
	Name string

	Definition *Descriptor
}

func (i *InnerComponent) isValue() {}

// DependencySpec 类型导向的依赖注入点。
// 解析完全委托给注册表的通用依赖解析能力。
type DependencySpec struct {
	// Type 注入点要求的类型。
	Type reflect.Type

	// Required 为 false 时允许解析结果为空。
	Required bool

	// InjectionPoint 注入点说明（字段名或参数位置），仅用于诊断。
	InjectionPoint string
}

func (d *DependencySpec) isValue() {}

// ManagedArray 带声明元素类型的数组值。
// 元素类型名首次成功解析后缓存在节点上；容器构造是单线程的，
// 类型加载后稳定，因此该可变缓存是安全的。
type ManagedArray struct {
	// ElementTypeName 声明的元素类型名，可以为空。
	ElementTypeName string

	Elements []Value

	resolvedElementType reflect.Type
}

// ResolvedElementType 返回缓存的元素类型，未解析时为 nil。
func (a *ManagedArray) ResolvedElementType() reflect.Type {
	return a.resolvedElementType
}

// CacheElementType 记录解析好的元素类型。
func (a *ManagedArray) CacheElementType(typ reflect.Type) {
	a.resolvedElementType = typ
}

func (a *ManagedArray) isValue() {}

// ManagedList 有序的值序列，解析时保持声明顺序。
type ManagedList struct {
	Elements []Value
}

func (l *ManagedList) isValue() {}

// ManagedSet 值集合。除输入迭代顺序外不保证元素顺序。
type ManagedSet struct {
	Elements []Value
}

func (s *ManagedSet) isValue() {}

// MapEntry ManagedMap 的一个键值对。
type MapEntry struct {
	Key Value
	Val Value
}

// ManagedMap 键值都待解析的映射，保持插入顺序。
type ManagedMap struct {
	Entries []MapEntry
}

func (m *ManagedMap) isValue() {}

// PropertyPair ManagedProperties 的一个字符串键值对。
type PropertyPair struct {
	Key Value
	Val Value
}

// ManagedProperties 轻量的字符串到字符串映射。
// 键和值若是字符串字面量会先做表达式求值，求值结果为 null 则解析失败。
type ManagedProperties struct {
	Pairs []PropertyPair
}

func (p *ManagedProperties) isValue() {}

// Null 显式的空值标记，解析为 nil。
type Null struct{}

func (n *Null) isValue() {}

// Raw 其他任意字面量，原样传递。
// 字符串和字符串切片是例外：它们会被作为表达式求值。
type Raw struct {
	Value any
}

func (r *Raw) isValue() {}
