package registry

import (
	"fmt"
	"reflect"
	"unicode"

	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// CreateComponent 按合并后的描述符创建组件实例：
// 解析构造参数、实例化、注入属性、跑初始化回调和钩子链。
// args 不为 nil 时跳过声明的构造参数，直接使用给定参数。
func (r *StandardRegistry) CreateComponent(name string, def *definition.Descriptor, args []any) (any, error) {
	r.inCreation[name] = true
	defer delete(r.inCreation, name)

	// 合并描述符感知型钩子先于实例化运行
	for _, h := range r.hooks {
		if mdh, ok := h.(MergedDefinitionHook); ok {
			mdh.PostProcessMergedDefinition(def, name)
		}
	}

	valueResolver := NewValueResolver(r, name, def, r.converter)

	if args == nil && len(def.ConstructorArgs) > 0 {
		args = make([]any, len(def.ConstructorArgs))
		for i, argValue := range def.ConstructorArgs {
			resolved, err := valueResolver.ResolveValueIfNecessary(
				Arg("constructor argument").WithKey(i), argValue)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
		}
	}

	instance, err := r.instantiate(name, def, args)
	if err != nil {
		return nil, err
	}
	if IsNullInstance(instance) {
		return instance, nil
	}

	if len(def.Properties) > 0 {
		if err := r.populateProperties(name, def, instance, valueResolver); err != nil {
			return nil, err
		}
	}

	instance, err = r.applyBeforeInitHooks(instance, name)
	if err != nil {
		return nil, &ComponentCreationError{Name: name, Err: err}
	}

	if initializer, ok := instance.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			return nil, &ComponentCreationError{Name: name, Err: fmt.Errorf("init callback failed: %w", err)}
		}
	}

	instance, err = r.applyAfterInitHooks(instance, name)
	if err != nil {
		return nil, &ComponentCreationError{Name: name, Err: err}
	}

	r.logger.Debug("Component created", logging.Field{Key: "name", Value: name})
	return instance, nil
}

// instantiate 创建裸实例：优先工厂函数，其次按类型反射构造。
func (r *StandardRegistry) instantiate(name string, def *definition.Descriptor, args []any) (any, error) {
	if def.Factory != nil {
		return r.invokeFactory(name, def, args)
	}

	typ := def.Type
	if typ == nil {
		return nil, &ComponentCreationError{Name: name,
			Err: fmt.Errorf("definition declares neither type nor factory")}
	}

	var val reflect.Value
	if typ.Kind() == reflect.Ptr {
		val = reflect.New(typ.Elem())
		def.CacheResolvedType(typ)
		return val.Interface(), nil
	}
	val = reflect.New(typ)
	def.CacheResolvedType(typ)
	return val.Elem().Interface(), nil
}

// invokeFactory 调用工厂函数。
// 允许的签名: func(...) T 或 func(...) (T, error)。
func (r *StandardRegistry) invokeFactory(name string, def *definition.Descriptor, args []any) (any, error) {
	fnVal := reflect.ValueOf(def.Factory)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, &ComponentCreationError{Name: name,
			Err: fmt.Errorf("factory is %T, expected function", def.Factory)}
	}
	if fnType.NumOut() == 0 {
		return nil, &ComponentCreationError{Name: name,
			Err: fmt.Errorf("factory function returns no values")}
	}
	if fnType.NumIn() != len(args) && !fnType.IsVariadic() {
		return nil, &ComponentCreationError{Name: name,
			Err: fmt.Errorf("factory expects %d arguments, got %d", fnType.NumIn(), len(args))}
	}

	callArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			// nil 参数需要按签名构造零值
			var paramType reflect.Type
			if fnType.IsVariadic() && i >= fnType.NumIn()-1 {
				paramType = fnType.In(fnType.NumIn() - 1).Elem()
			} else {
				paramType = fnType.In(i)
			}
			callArgs[i] = reflect.Zero(paramType)
			continue
		}
		callArgs[i] = reflect.ValueOf(arg)
	}

	results := fnVal.Call(callArgs)

	// 最后一个返回值是 error 时先检查
	if len(results) > 1 {
		last := results[len(results)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return nil, &ComponentCreationError{Name: name, Err: last.Interface().(error)}
		}
	}

	first := results[0]
	def.CacheResolvedType(first.Type())
	if (first.Kind() == reflect.Ptr || first.Kind() == reflect.Interface) && first.IsNil() {
		return NullInstance, nil
	}
	return first.Interface(), nil
}

// populateProperties 将解析后的属性值注入结构体字段。
func (r *StandardRegistry) populateProperties(name string, def *definition.Descriptor,
	instance any, valueResolver *ValueResolver) error {

	val := reflect.ValueOf(instance)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return &ComponentCreationError{Name: name,
			Err: fmt.Errorf("cannot inject properties into %T: struct pointer required", instance)}
	}
	structVal := val.Elem()

	for _, prop := range def.Properties {
		resolved, err := valueResolver.ResolveValueIfNecessary(
			Arg(fmt.Sprintf("property '%s'", prop.Name)), prop.Value)
		if err != nil {
			return err
		}

		field := structVal.FieldByName(exportedName(prop.Name))
		if !field.IsValid() {
			return &ComponentCreationError{Name: name,
				Err: fmt.Errorf("no field for property '%s' on %s", prop.Name, structVal.Type())}
		}
		if !field.CanSet() {
			return &ComponentCreationError{Name: name,
				Err: fmt.Errorf("field for property '%s' on %s is not settable", prop.Name, structVal.Type())}
		}

		if resolved == nil {
			field.Set(reflect.Zero(field.Type()))
			continue
		}

		converted, err := r.converter.ConvertIfNecessary(resolved, field.Type())
		if err != nil {
			return &ValueResolutionError{
				ComponentName: name,
				ComponentType: def.DisplayType(),
				Arg:           fmt.Sprintf("property '%s'", prop.Name),
				Message:       "error converting property value",
				Err:           err,
			}
		}
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}

// exportedName 将属性名转为导出字段名（首字母大写）
func exportedName(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
