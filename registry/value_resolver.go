package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gocrud/beans/conversion"
	"github.com/gocrud/beans/definition"
)

// innerComponentPrefix 合成内嵌组件名时使用的固定前缀
const innerComponentPrefix = "(inner component)"

// IsInnerComponentName 判断名字是否是解析内嵌组件时合成的。
func IsInnerComponentName(name string) bool {
	return strings.HasPrefix(name, innerComponentPrefix)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// ValueResolver 将一个组件描述符中声明的值表达式递归解析为具体实例。
// 每次创建组件时构造一个新的解析器，持有该组件的名字和描述符用于诊断。
// 解析过程中通过注册表获取被引用的实例并记录依赖边。
type ValueResolver struct {
	registry  *StandardRegistry
	name      string
	def       *definition.Descriptor
	converter conversion.Converter
}

// NewValueResolver 为一次组件创建过程构造值解析器。
func NewValueResolver(r *StandardRegistry, name string, def *definition.Descriptor,
	converter conversion.Converter) *ValueResolver {
	if converter == nil {
		converter = r.converter
	}
	return &ValueResolver{registry: r, name: name, def: def, converter: converter}
}

// ResolveValueIfNecessary 解析单个值表达式，按变体分派。
// 部分解析结果永远不会泄漏到外部：要么得到完整的值，要么返回错误。
func (v *ValueResolver) ResolveValueIfNecessary(arg ArgName, value definition.Value) (any, error) {
	switch val := value.(type) {
	case nil:
		return nil, nil
	case *definition.Null:
		return nil, nil
	case *definition.ComponentRef:
		return v.resolveReference(arg, val)
	case *definition.NameRef:
		return v.resolveNameReference(arg, val)
	case *definition.InnerComponent:
		return v.resolveInnerComponent(arg, val)
	case *definition.DependencySpec:
		return v.resolveDependencySpec(arg, val)
	case *definition.ManagedArray:
		return v.resolveManagedArray(arg, val)
	case *definition.ManagedList:
		return v.resolveManagedList(arg, val)
	case *definition.ManagedSet:
		return v.resolveManagedSet(arg, val)
	case *definition.ManagedMap:
		return v.resolveManagedMap(arg, val)
	case *definition.ManagedProperties:
		return v.resolveManagedProperties(arg, val)
	case *definition.TypedString:
		return v.resolveTypedString(arg, val)
	case *definition.Raw:
		return v.resolveRaw(val)
	default:
		return nil, v.wrapError(arg, fmt.Sprintf("unsupported value expression type %T", value), nil)
	}
}

// resolveReference 解析对另一个组件实例的引用。
// 声明了类型时按类型解析，否则按名字；指向父注册表的引用不记录依赖边。
func (v *ValueResolver) resolveReference(arg ArgName, ref *definition.ComponentRef) (any, error) {
	if ref.ToParent {
		parent := v.registry.Parent()
		if parent == nil {
			return nil, &MissingParentRegistryError{ComponentName: v.name, RefName: ref.Name}
		}
		var instance any
		var err error
		if ref.Type != nil {
			spec := &definition.DependencySpec{Type: ref.Type, Required: true}
			instance, err = parent.ResolveDependency(spec, "", nil, v.converter)
		} else {
			instance, err = parent.Get(ref.Name)
		}
		if err != nil {
			return nil, v.wrapError(arg,
				fmt.Sprintf("cannot resolve reference to component '%s' in parent registry", ref.Name), err)
		}
		if IsNullInstance(instance) {
			return nil, nil
		}
		return instance, nil
	}

	if ref.Type != nil {
		var resolvedNames []string
		spec := &definition.DependencySpec{Type: ref.Type, Required: true}
		instance, err := v.registry.ResolveDependency(spec, v.name, &resolvedNames, v.converter)
		if err != nil {
			return nil, v.wrapError(arg,
				fmt.Sprintf("cannot resolve reference to component of type %v", ref.Type), err)
		}
		for _, resolvedName := range resolvedNames {
			v.registry.RegisterDependentComponent(resolvedName, v.name)
		}
		return instance, nil
	}

	// 名字本身可能是表达式
	evaluated, err := v.registry.Evaluate(ref.Name, v.def)
	if err != nil {
		return nil, v.wrapError(arg,
			fmt.Sprintf("cannot evaluate component name '%s'", ref.Name), err)
	}
	resolvedName := fmt.Sprintf("%v", evaluated)

	instance, err := v.registry.Get(resolvedName)
	if err != nil {
		return nil, v.wrapError(arg,
			fmt.Sprintf("cannot resolve reference to component '%s'", resolvedName), err)
	}
	v.registry.RegisterDependentComponent(resolvedName, v.name)
	if IsNullInstance(instance) {
		return nil, nil
	}
	return instance, nil
}

// resolveNameReference 解析"组件名"引用。
// 结果是经过存在性校验的名字本身，不是实例。
func (v *ValueResolver) resolveNameReference(arg ArgName, ref *definition.NameRef) (any, error) {
	evaluated, err := v.registry.Evaluate(ref.Name, v.def)
	if err != nil {
		return nil, v.wrapError(arg,
			fmt.Sprintf("cannot evaluate component name '%s'", ref.Name), err)
	}
	refName := fmt.Sprintf("%v", evaluated)
	if !v.registry.Contains(refName) {
		return nil, &InvalidReferenceError{RefName: refName, Arg: arg.String()}
	}
	return refName, nil
}

// resolveInnerComponent 物化一个内嵌的匿名描述符。
// 内嵌组件强制为非单例原型，登记到外层组件的包含关系中；
// 它声明依赖的名字会在创建前被提前实例化。
func (v *ValueResolver) resolveInnerComponent(arg ArgName, inner *definition.InnerComponent) (any, error) {
	innerName := inner.Name
	if innerName == "" {
		innerName = fmt.Sprintf("%s#%p", innerComponentPrefix, inner.Definition)
	}

	merged, err := v.registry.MergedDefinition(innerName, inner.Definition, v.def)
	if err != nil {
		return nil, &InnerComponentCreationError{
			InnerName: innerName,
			InnerType: inner.Definition.DisplayType(),
			Arg:       arg.String(),
			Err:       err,
		}
	}

	// 同名冲突时追加计数后缀，保证兄弟解析之间名字唯一
	actualName := innerName
	if merged.IsSingleton() {
		actualName = v.adaptInnerName(innerName)
	}
	merged.Scope = definition.ScopePrototype

	v.registry.RegisterContainedComponent(actualName, v.name)

	for _, dependsOn := range merged.DependsOn {
		v.registry.RegisterDependentComponent(dependsOn, actualName)
		if _, err := v.registry.Get(dependsOn); err != nil {
			return nil, &InnerComponentCreationError{
				InnerName: actualName,
				InnerType: merged.DisplayType(),
				Arg:       arg.String(),
				Err:       err,
			}
		}
	}

	instance, err := v.registry.CreateComponent(actualName, merged, nil)
	if err != nil {
		return nil, &InnerComponentCreationError{
			InnerName: actualName,
			InnerType: merged.DisplayType(),
			Arg:       arg.String(),
			Err:       err,
		}
	}

	if factory, ok := instance.(Factory); ok {
		instance, err = v.registry.ObjectFromFactory(factory, actualName, !merged.Synthetic)
		if err != nil {
			return nil, &InnerComponentCreationError{
				InnerName: actualName,
				InnerType: merged.DisplayType(),
				Arg:       arg.String(),
				Err:       err,
			}
		}
	}
	if IsNullInstance(instance) {
		return nil, nil
	}
	return instance, nil
}

// adaptInnerName 在合成名已被占用时追加递增后缀。
func (v *ValueResolver) adaptInnerName(innerName string) string {
	if !v.registry.NameInUse(innerName) {
		return innerName
	}
	counter := 0
	actualName := innerName
	for v.registry.NameInUse(actualName) {
		counter++
		actualName = fmt.Sprintf("%s#%d", innerName, counter)
	}
	return actualName
}

// resolveDependencySpec 将类型导向的注入点委托给注册表的通用依赖解析，
// 并为每个参与解析的组件记录依赖边。
func (v *ValueResolver) resolveDependencySpec(arg ArgName, spec *definition.DependencySpec) (any, error) {
	var resolvedNames []string
	instance, err := v.registry.ResolveDependency(spec, v.name, &resolvedNames, v.converter)
	if err != nil {
		return nil, v.wrapError(arg, "error resolving type-directed dependency", err)
	}
	for _, resolvedName := range resolvedNames {
		v.registry.RegisterDependentComponent(resolvedName, v.name)
	}
	return instance, nil
}

// resolveManagedArray 解析带声明元素类型的数组。
// 元素类型名首次解析成功后缓存在表达式节点上，后续解析不再查表。
func (v *ValueResolver) resolveManagedArray(arg ArgName, array *definition.ManagedArray) (any, error) {
	elementType := array.ResolvedElementType()
	if elementType == nil {
		if array.ElementTypeName != "" {
			resolved, err := v.registry.ResolveTypeName(array.ElementTypeName)
			if err != nil {
				return nil, &ArrayTypeResolutionError{
					TypeName: array.ElementTypeName,
					Arg:      arg.String(),
					Err:      err,
				}
			}
			elementType = resolved
			array.CacheElementType(resolved)
		} else {
			elementType = anyType
		}
	}

	result := reflect.MakeSlice(reflect.SliceOf(elementType), len(array.Elements), len(array.Elements))
	for i, element := range array.Elements {
		resolved, err := v.ResolveValueIfNecessary(arg.WithKey(i), element)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			continue
		}
		converted, err := v.converter.ConvertIfNecessary(resolved, elementType)
		if err != nil {
			return nil, v.wrapError(arg.WithKey(i),
				fmt.Sprintf("error converting array element to %v", elementType), err)
		}
		result.Index(i).Set(reflect.ValueOf(converted))
	}
	return result.Interface(), nil
}

// resolveManagedList 解析有序序列，保持声明顺序。
func (v *ValueResolver) resolveManagedList(arg ArgName, list *definition.ManagedList) ([]any, error) {
	resolved := make([]any, len(list.Elements))
	for i, element := range list.Elements {
		value, err := v.ResolveValueIfNecessary(arg.WithKey(i), element)
		if err != nil {
			return nil, err
		}
		resolved[i] = value
	}
	return resolved, nil
}

// resolveManagedSet 解析集合。除输入迭代顺序外不保证元素顺序。
func (v *ValueResolver) resolveManagedSet(arg ArgName, set *definition.ManagedSet) ([]any, error) {
	resolved := make([]any, 0, len(set.Elements))
	for i, element := range set.Elements {
		value, err := v.ResolveValueIfNecessary(arg.WithKey(i), element)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, value)
	}
	return resolved, nil
}

// resolveManagedMap 解析键值都待解析的映射。
// 键值对按声明顺序解析；键必须是可比较类型。
func (v *ValueResolver) resolveManagedMap(arg ArgName, m *definition.ManagedMap) (map[any]any, error) {
	resolved := make(map[any]any, len(m.Entries))
	for _, entry := range m.Entries {
		key, err := v.ResolveValueIfNecessary(arg, entry.Key)
		if err != nil {
			return nil, err
		}
		if key == nil || !reflect.TypeOf(key).Comparable() {
			return nil, v.wrapError(arg, fmt.Sprintf("map key of type %T is not comparable", key), nil)
		}
		value, err := v.ResolveValueIfNecessary(arg.WithKey(key), entry.Val)
		if err != nil {
			return nil, err
		}
		resolved[key] = value
	}
	return resolved, nil
}

// resolveManagedProperties 解析字符串键值对。
// 键和值若是字符串字面量先做表达式求值，求值为空则失败。
func (v *ValueResolver) resolveManagedProperties(arg ArgName, props *definition.ManagedProperties) (map[string]string, error) {
	resolved := make(map[string]string, len(props.Pairs))
	for _, pair := range props.Pairs {
		key, err := v.resolvePropertyString(arg, pair.Key)
		if err != nil {
			return nil, err
		}
		value, err := v.resolvePropertyString(arg, pair.Val)
		if err != nil {
			return nil, err
		}
		if key == nil || value == nil {
			return nil, &NullPropertyError{ComponentName: v.name, Arg: arg.String()}
		}
		resolved[fmt.Sprintf("%v", key)] = fmt.Sprintf("%v", value)
	}
	return resolved, nil
}

// resolvePropertyString 解析键值对中的单侧，字符串字面量走表达式求值。
func (v *ValueResolver) resolvePropertyString(arg ArgName, value definition.Value) (any, error) {
	if ts, ok := value.(*definition.TypedString); ok {
		evaluated, err := v.registry.Evaluate(ts.Value, v.def)
		if err != nil {
			return nil, v.wrapError(arg, "error evaluating key/value literal", err)
		}
		return evaluated, nil
	}
	return v.ResolveValueIfNecessary(arg, value)
}

// resolveTypedString 求值字符串字面量并按目标类型转换。
// 求值结果与原文不同说明字面量包含表达式，标记为动态后
// 描述符持有者不再缓存该值的转换结果。
func (v *ValueResolver) resolveTypedString(arg ArgName, ts *definition.TypedString) (any, error) {
	evaluated, err := v.registry.Evaluate(ts.Value, v.def)
	if err != nil {
		return nil, v.wrapError(arg, "error evaluating literal", err)
	}
	if str, ok := evaluated.(string); !ok || str != ts.Value {
		ts.MarkDynamic()
	}

	targetType, err := v.targetTypeFor(arg, ts)
	if err != nil {
		return nil, err
	}
	if targetType == nil {
		return evaluated, nil
	}

	converted, err := v.converter.ConvertIfNecessary(evaluated, targetType)
	if err != nil {
		return nil, v.wrapError(arg,
			fmt.Sprintf("error converting literal to type %v", targetType), err)
	}
	return converted, nil
}

// targetTypeFor 返回字面量的目标类型，必要时按类型名解析并缓存。
func (v *ValueResolver) targetTypeFor(arg ArgName, ts *definition.TypedString) (reflect.Type, error) {
	if ts.HasTargetType() {
		return ts.TargetType, nil
	}
	if ts.TargetTypeName == "" {
		return nil, nil
	}
	resolved, err := v.registry.ResolveTypeName(ts.TargetTypeName)
	if err != nil {
		return nil, v.wrapError(arg,
			fmt.Sprintf("error resolving target type '%s' for literal", ts.TargetTypeName), err)
	}
	ts.TargetType = resolved
	return resolved, nil
}

// resolveRaw 处理其他任意字面量。
// 字符串和字符串切片会被作为表达式求值，其余原样传递。
func (v *ValueResolver) resolveRaw(raw *definition.Raw) (any, error) {
	switch val := raw.Value.(type) {
	case string:
		return v.registry.Evaluate(val, v.def)
	case []string:
		// 仅在有元素实际变化时才重新分配
		var evaluated []string
		changed := false
		for i, element := range val {
			result, err := v.registry.Evaluate(element, v.def)
			if err != nil {
				return nil, err
			}
			str := fmt.Sprintf("%v", result)
			if str != element {
				if !changed {
					evaluated = append([]string(nil), val...)
					changed = true
				}
				evaluated[i] = str
				continue
			}
			if changed {
				evaluated[i] = element
			}
		}
		if changed {
			return evaluated, nil
		}
		return val, nil
	default:
		return raw.Value, nil
	}
}

// wrapError 用持有组件的名字、声明类型和参数上下文包装底层失败。
func (v *ValueResolver) wrapError(arg ArgName, message string, err error) error {
	return &ValueResolutionError{
		ComponentName: v.name,
		ComponentType: v.def.DisplayType(),
		Arg:           arg.String(),
		Message:       message,
		Err:           err,
	}
}
