package definition

import (
	"reflect"
)

// Scope 定义了组件的生命周期。
type Scope int

const (
	// ScopeSingleton 每个注册表创建一个实例（默认）。
	ScopeSingleton Scope = iota
	// ScopePrototype 每次请求创建一个新实例。
	ScopePrototype
)

// Role 标识组件在容器中的角色。
type Role int

const (
	// RoleApplication 普通的应用组件（默认）。
	RoleApplication Role = iota
	// RoleInfrastructure 容器自身的基础设施组件，部分诊断检查会跳过它。
	RoleInfrastructure
)

// Property 描述符上一个命名属性及其待解析的值。
type Property struct {
	Name  string
	Value Value
}

// Descriptor 一个受管组件的声明式配方。
// 配置加载时创建（外部职责），解析期间只读，
// 仅 resolvedType 缓存和 Value 节点自身的缓存单元会被延迟写入。
type Descriptor struct {
	// Type 组件的目标类型。Factory 不为 nil 时可以为空。
	Type reflect.Type

	// TypeName 目标类型名，仅用于诊断信息。
	TypeName string

	// Factory 工厂函数，参数由 ConstructorArgs 解析后传入。
	// 允许的签名: func(...) T 或 func(...) (T, error)。
	Factory any

	// ConstructorArgs 按位置排列的构造参数值。
	ConstructorArgs []Value

	// Properties 按声明顺序排列的属性值。
	Properties []Property

	// DependsOn 该组件显式依赖的组件名，会在其创建前被强制实例化。
	DependsOn []string

	// Parent 父定义名，合并时继承其类型、工厂与属性。
	Parent string

	Scope Scope
	Role  Role

	// Synthetic 标记容器内部合成的描述符，
	// 工厂间接层解包时不再经过后置处理。
	Synthetic bool

	// Lazy 为 true 时单例不参与容器启动时的预实例化。
	Lazy bool

	// resolvedType 解析过程中延迟填充的类型缓存。
	resolvedType reflect.Type
}

// IsSingleton 报告该描述符是否声明为单例。
func (d *Descriptor) IsSingleton() bool {
	return d.Scope == ScopeSingleton
}

// ResolvedType 返回缓存的解析类型；尚未解析时回退到声明的 Type。
func (d *Descriptor) ResolvedType() reflect.Type {
	if d.resolvedType != nil {
		return d.resolvedType
	}
	return d.Type
}

// CacheResolvedType 记录解析出的组件类型。
func (d *Descriptor) CacheResolvedType(typ reflect.Type) {
	d.resolvedType = typ
}

// DisplayType 返回用于诊断的类型描述，可能为空字符串。
func (d *Descriptor) DisplayType() string {
	if d.TypeName != "" {
		return d.TypeName
	}
	if d.Type != nil {
		return d.Type.String()
	}
	return ""
}

// SetProperty 追加或覆盖一个命名属性。
func (d *Descriptor) SetProperty(name string, value Value) {
	for i := range d.Properties {
		if d.Properties[i].Name == name {
			d.Properties[i].Value = value
			return
		}
	}
	d.Properties = append(d.Properties, Property{Name: name, Value: value})
}

// GetProperty 返回命名属性的值，不存在时返回 nil。
func (d *Descriptor) GetProperty(name string) Value {
	for i := range d.Properties {
		if d.Properties[i].Name == name {
			return d.Properties[i].Value
		}
	}
	return nil
}

// Clone 返回描述符的浅拷贝，属性和参数切片独立。
// 合并父子定义时使用，避免写回原始描述符。
func (d *Descriptor) Clone() *Descriptor {
	clone := *d
	clone.ConstructorArgs = append([]Value(nil), d.ConstructorArgs...)
	clone.Properties = append([]Property(nil), d.Properties...)
	clone.DependsOn = append([]string(nil), d.DependsOn...)
	clone.resolvedType = nil
	return &clone
}

// MergeFrom 将 parent 的声明合并进当前描述符：
// 类型与工厂缺省时继承，属性与构造参数以子定义覆盖父定义。
func (d *Descriptor) MergeFrom(parent *Descriptor) {
	if d.Type == nil && d.Factory == nil {
		d.Type = parent.Type
		d.TypeName = parent.TypeName
		d.Factory = parent.Factory
	}
	if len(d.ConstructorArgs) == 0 {
		d.ConstructorArgs = append([]Value(nil), parent.ConstructorArgs...)
	}
	merged := append([]Property(nil), parent.Properties...)
	for _, p := range d.Properties {
		replaced := false
		for i := range merged {
			if merged[i].Name == p.Name {
				merged[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, p)
		}
	}
	d.Properties = merged
	if len(d.DependsOn) == 0 {
		d.DependsOn = append([]string(nil), parent.DependsOn...)
	}
}
