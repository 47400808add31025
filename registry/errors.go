package registry

import (
	"fmt"
	"reflect"
	"strings"
)

// ArgName 标识当前正在解析的参数或属性，仅用于诊断信息。
// 集合元素解析时用 WithKey 追加索引或键。
type ArgName struct {
	name  string
	key   any
	keyed bool
}

// Arg 创建一个参数上下文
func Arg(name string) ArgName {
	return ArgName{name: name}
}

// WithKey 返回带元素索引或键修饰的参数上下文
func (a ArgName) WithKey(key any) ArgName {
	return ArgName{name: a.String(), key: key, keyed: true}
}

func (a ArgName) String() string {
	if a.keyed {
		return fmt.Sprintf("%s with key [%v]", a.name, a.key)
	}
	return a.name
}

// ValueResolutionError 包装值解析过程中来自注册表或转换器的任何底层失败，
// 附带持有组件的名字、已知的声明类型和正在解析的参数上下文。
type ValueResolutionError struct {
	ComponentName string
	ComponentType string
	Arg           string
	Message       string
	Err           error
}

func (e *ValueResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("error creating component '")
	b.WriteString(e.ComponentName)
	b.WriteString("'")
	if e.ComponentType != "" {
		b.WriteString(" of type [")
		b.WriteString(e.ComponentType)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Arg != "" {
		b.WriteString(" while setting ")
		b.WriteString(e.Arg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValueResolutionError) Unwrap() error {
	return e.Err
}

// InvalidReferenceError 名字引用指向不存在的组件。
type InvalidReferenceError struct {
	RefName string
	Arg     string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid component name '%s' in reference for %s", e.RefName, e.Arg)
}

// MissingParentRegistryError 声明了指向父注册表的引用但没有父注册表。
type MissingParentRegistryError struct {
	ComponentName string
	RefName       string
}

func (e *MissingParentRegistryError) Error() string {
	return fmt.Sprintf("component '%s': cannot resolve reference to '%s' in parent registry: no parent registry available",
		e.ComponentName, e.RefName)
}

// InnerComponentCreationError 物化内嵌描述符时的任何失败。
type InnerComponentCreationError struct {
	InnerName string
	InnerType string
	Arg       string
	Err       error
}

func (e *InnerComponentCreationError) Error() string {
	typePart := ""
	if e.InnerType != "" {
		typePart = fmt.Sprintf("of type [%s] ", e.InnerType)
	}
	return fmt.Sprintf("cannot create inner component '%s' %swhile setting %s: %v",
		e.InnerName, typePart, e.Arg, e.Err)
}

func (e *InnerComponentCreationError) Unwrap() error {
	return e.Err
}

// ArrayTypeResolutionError 数组声明的元素类型名无法解析。
type ArrayTypeResolutionError struct {
	TypeName string
	Arg      string
	Err      error
}

func (e *ArrayTypeResolutionError) Error() string {
	return fmt.Sprintf("error resolving array type '%s' for %s: %v", e.TypeName, e.Arg, e.Err)
}

func (e *ArrayTypeResolutionError) Unwrap() error {
	return e.Err
}

// NullPropertyError 字符串键值对的键或值求值后为空。
type NullPropertyError struct {
	ComponentName string
	Arg           string
}

func (e *NullPropertyError) Error() string {
	return fmt.Sprintf("component '%s': error converting key/value pair for %s: resolved to null",
		e.ComponentName, e.Arg)
}

// NoSuchComponentError 按名字或类型找不到组件。
type NoSuchComponentError struct {
	Name string
	Type reflect.Type
}

func (e *NoSuchComponentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no component named '%s' registered", e.Name)
	}
	return fmt.Sprintf("no component of type %v registered", e.Type)
}

// TypeMismatchError 按名字找到的组件与要求的类型不匹配，
// 或按类型解析时找到了多个候选。
type TypeMismatchError struct {
	Name       string
	Expected   reflect.Type
	Actual     reflect.Type
	Candidates []string
}

func (e *TypeMismatchError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("expected single component of type %v but found %d: %v",
			e.Expected, len(e.Candidates), e.Candidates)
	}
	return fmt.Sprintf("component '%s' is of type %v, expected %v", e.Name, e.Actual, e.Expected)
}

// CircularDependencyError 创建过程中检测到循环引用。
type CircularDependencyError struct {
	Name string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular reference detected: component '%s' is currently in creation", e.Name)
}

// ComponentCreationError 组件实例化失败。
type ComponentCreationError struct {
	Name string
	Err  error
}

func (e *ComponentCreationError) Error() string {
	return fmt.Sprintf("error creating component '%s': %v", e.Name, e.Err)
}

func (e *ComponentCreationError) Unwrap() error {
	return e.Err
}
