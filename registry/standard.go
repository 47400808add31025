package registry

import (
	"fmt"
	"reflect"

	"github.com/gocrud/beans/conversion"
	"github.com/gocrud/beans/definition"
	"github.com/gocrud/beans/logging"
)

// StandardRegistry 是 ConfigurableRegistry 的默认实现。
// 容器构造是单线程的协作式流程，注册表不做内部加锁；
// 所有变更都通过窄的能力面进行，可重入的扩展回调在每个调用边界
// 观察到的都是一致的快照。
type StandardRegistry struct {
	parent Registry

	definitions     map[string]*definition.Descriptor
	definitionOrder []string

	mergedCache map[string]*definition.Descriptor

	singletons     map[string]any
	singletonOrder []string

	// inCreation 正在创建中的组件名，用于循环引用诊断
	inCreation map[string]bool

	// dependents 依赖名 -> 依赖它的组件名
	dependents map[string][]string
	// dependencies 组件名 -> 它依赖的组件名
	dependencies map[string][]string
	// contained 外层组件名 -> 内嵌组件名
	contained map[string][]string

	hooks []Hook

	typeNames map[string]reflect.Type

	converter  conversion.Converter
	evaluator  Evaluator
	comparator func(a, b any) int
	logger     logging.Logger
}

// NewStandardRegistry 创建空的标准注册表
func NewStandardRegistry() *StandardRegistry {
	return &StandardRegistry{
		definitions:  make(map[string]*definition.Descriptor),
		mergedCache:  make(map[string]*definition.Descriptor),
		singletons:   make(map[string]any),
		inCreation:   make(map[string]bool),
		dependents:   make(map[string][]string),
		dependencies: make(map[string][]string),
		contained:    make(map[string][]string),
		typeNames:    make(map[string]reflect.Type),
		converter:    conversion.NewDefaultConverter(),
		logger:       logging.Nop(),
	}
}

// SetLogger 设置注册表使用的日志记录器
func (r *StandardRegistry) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

func (r *StandardRegistry) SetParent(parent Registry) {
	r.parent = parent
}

func (r *StandardRegistry) Parent() Registry {
	return r.parent
}

func (r *StandardRegistry) SetConverter(converter conversion.Converter) {
	if converter != nil {
		r.converter = converter
	}
}

// Converter 返回注册表的类型转换器
func (r *StandardRegistry) Converter() conversion.Converter {
	return r.converter
}

func (r *StandardRegistry) SetEvaluator(evaluator Evaluator) {
	r.evaluator = evaluator
}

// Evaluate 将字符串作为表达式求值；未配置求值器时原样返回。
func (r *StandardRegistry) Evaluate(raw string, owner *definition.Descriptor) (any, error) {
	if r.evaluator == nil {
		return raw, nil
	}
	return r.evaluator.Evaluate(raw, owner)
}

func (r *StandardRegistry) SetOrderComparator(cmp func(a, b any) int) {
	r.comparator = cmp
}

func (r *StandardRegistry) OrderComparator() func(a, b any) int {
	return r.comparator
}

// ---------------- 描述符注册 ----------------

func (r *StandardRegistry) RegisterDefinition(name string, def *definition.Descriptor) error {
	if name == "" {
		return fmt.Errorf("registry: definition name must not be empty")
	}
	if def == nil {
		return fmt.Errorf("registry: definition for '%s' must not be nil", name)
	}
	if _, exists := r.definitions[name]; !exists {
		r.definitionOrder = append(r.definitionOrder, name)
	}
	r.definitions[name] = def
	delete(r.mergedCache, name)
	return nil
}

func (r *StandardRegistry) RemoveDefinition(name string) error {
	if _, exists := r.definitions[name]; !exists {
		return &NoSuchComponentError{Name: name}
	}
	delete(r.definitions, name)
	delete(r.mergedCache, name)
	for i, n := range r.definitionOrder {
		if n == name {
			r.definitionOrder = append(r.definitionOrder[:i], r.definitionOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *StandardRegistry) GetDefinition(name string) (*definition.Descriptor, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

func (r *StandardRegistry) ContainsDefinition(name string) bool {
	_, ok := r.definitions[name]
	return ok
}

func (r *StandardRegistry) DefinitionNames() []string {
	return append([]string(nil), r.definitionOrder...)
}

func (r *StandardRegistry) DefinitionCount() int {
	return len(r.definitions)
}

// ---------------- 单例 ----------------

func (r *StandardRegistry) RegisterSingleton(name string, instance any) error {
	if _, exists := r.singletons[name]; exists {
		return fmt.Errorf("registry: singleton '%s' already registered", name)
	}
	if instance == nil {
		instance = NullInstance
	}
	r.singletons[name] = instance
	r.singletonOrder = append(r.singletonOrder, name)
	return nil
}

// ContainsSingleton 报告是否已有该名字的单例实例
func (r *StandardRegistry) ContainsSingleton(name string) bool {
	_, ok := r.singletons[name]
	return ok
}

func (r *StandardRegistry) RegisterTypeName(name string, typ reflect.Type) {
	r.typeNames[name] = typ
}

// ResolveTypeName 按登记过的类型名查找类型
func (r *StandardRegistry) ResolveTypeName(name string) (reflect.Type, error) {
	typ, ok := r.typeNames[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown type name '%s'", name)
	}
	return typ, nil
}

// ---------------- 获取与创建 ----------------

func (r *StandardRegistry) Contains(name string) bool {
	if _, ok := r.singletons[name]; ok {
		return true
	}
	if _, ok := r.definitions[name]; ok {
		return true
	}
	if r.parent != nil {
		return r.parent.Contains(name)
	}
	return false
}

func (r *StandardRegistry) NameInUse(name string) bool {
	if r.Contains(name) {
		return true
	}
	_, hasDependents := r.dependents[name]
	return hasDependents
}

func (r *StandardRegistry) Get(name string) (any, error) {
	if instance, ok := r.singletons[name]; ok {
		return instance, nil
	}

	raw, ok := r.definitions[name]
	if !ok {
		if r.parent != nil {
			return r.parent.Get(name)
		}
		return nil, &NoSuchComponentError{Name: name}
	}

	merged, err := r.MergedDefinition(name, raw, nil)
	if err != nil {
		return nil, err
	}

	if merged.IsSingleton() {
		if r.inCreation[name] {
			return nil, &CircularDependencyError{Name: name}
		}
		instance, err := r.CreateComponent(name, merged, nil)
		if err != nil {
			return nil, err
		}
		r.singletons[name] = instance
		r.singletonOrder = append(r.singletonOrder, name)
		return instance, nil
	}

	// 原型：每次请求都创建
	if r.inCreation[name] {
		return nil, &CircularDependencyError{Name: name}
	}
	return r.CreateComponent(name, merged, nil)
}

func (r *StandardRegistry) GetTyped(name string, typ reflect.Type) (any, error) {
	instance, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if IsNullInstance(instance) {
		return nil, nil
	}
	if typ != nil && !reflect.TypeOf(instance).AssignableTo(typ) {
		return nil, &TypeMismatchError{Name: name, Expected: typ, Actual: reflect.TypeOf(instance)}
	}
	return instance, nil
}

func (r *StandardRegistry) IsTypeMatch(name string, typ reflect.Type) bool {
	if instance, ok := r.singletons[name]; ok {
		if IsNullInstance(instance) {
			return false
		}
		return reflect.TypeOf(instance).AssignableTo(typ)
	}
	if def, ok := r.definitions[name]; ok {
		defType := r.typeForDefinition(def)
		return defType != nil && defType.AssignableTo(typ)
	}
	if r.parent != nil {
		return r.parent.IsTypeMatch(name, typ)
	}
	return false
}

func (r *StandardRegistry) NamesForType(typ reflect.Type) []string {
	var names []string
	seen := make(map[string]bool)
	for _, name := range r.definitionOrder {
		def := r.definitions[name]
		defType := r.typeForDefinition(def)
		if defType != nil && defType.AssignableTo(typ) {
			names = append(names, name)
			seen[name] = true
		}
	}
	// 手工注册的单例也参与类型发现
	for _, name := range r.singletonOrder {
		if seen[name] || r.ContainsDefinition(name) {
			continue
		}
		instance := r.singletons[name]
		if !IsNullInstance(instance) && reflect.TypeOf(instance).AssignableTo(typ) {
			names = append(names, name)
		}
	}
	return names
}

// typeForDefinition 返回描述符的组件类型，必要时从工厂签名推断并缓存。
func (r *StandardRegistry) typeForDefinition(def *definition.Descriptor) reflect.Type {
	if t := def.ResolvedType(); t != nil {
		return t
	}
	if def.Factory != nil {
		fnType := reflect.TypeOf(def.Factory)
		if fnType.Kind() == reflect.Func && fnType.NumOut() > 0 {
			def.CacheResolvedType(fnType.Out(0))
			return fnType.Out(0)
		}
	}
	return nil
}

// ---------------- 依赖关系 ----------------

func (r *StandardRegistry) RegisterDependentComponent(dependencyName, dependentName string) {
	for _, existing := range r.dependents[dependencyName] {
		if existing == dependentName {
			return
		}
	}
	r.dependents[dependencyName] = append(r.dependents[dependencyName], dependentName)
	r.dependencies[dependentName] = append(r.dependencies[dependentName], dependencyName)
}

// DependentsOf 返回依赖于 name 的组件名
func (r *StandardRegistry) DependentsOf(name string) []string {
	return append([]string(nil), r.dependents[name]...)
}

// DependenciesOf 返回 name 依赖的组件名
func (r *StandardRegistry) DependenciesOf(name string) []string {
	return append([]string(nil), r.dependencies[name]...)
}

func (r *StandardRegistry) RegisterContainedComponent(containedName, containingName string) {
	r.contained[containingName] = append(r.contained[containingName], containedName)
	// 内嵌组件的销毁先于外层组件
	r.RegisterDependentComponent(containingName, containedName)
}

// ---------------- 类型导向的依赖解析 ----------------

func (r *StandardRegistry) ResolveDependency(spec *definition.DependencySpec, requestingName string,
	resolvedNames *[]string, converter conversion.Converter) (any, error) {

	if spec == nil || spec.Type == nil {
		return nil, fmt.Errorf("registry: dependency spec without type requested by '%s'", requestingName)
	}

	candidates := r.NamesForType(spec.Type)
	// 请求者自身不参与候选
	filtered := candidates[:0]
	for _, c := range candidates {
		if c != requestingName {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered

	switch len(candidates) {
	case 0:
		if !spec.Required {
			return nil, nil
		}
		return nil, &NoSuchComponentError{Type: spec.Type}
	case 1:
		instance, err := r.Get(candidates[0])
		if err != nil {
			return nil, err
		}
		if resolvedNames != nil {
			*resolvedNames = append(*resolvedNames, candidates[0])
		}
		if IsNullInstance(instance) {
			return nil, nil
		}
		if converter != nil {
			return converter.ConvertIfNecessary(instance, spec.Type)
		}
		return instance, nil
	default:
		return nil, &TypeMismatchError{Expected: spec.Type, Candidates: candidates}
	}
}

// ---------------- 合并描述符 ----------------

func (r *StandardRegistry) MergedDefinition(name string, raw *definition.Descriptor,
	containing *definition.Descriptor) (*definition.Descriptor, error) {

	// 顶层描述符的合并结果按名字缓存；内嵌描述符每次重新计算
	if containing == nil {
		if cached, ok := r.mergedCache[name]; ok {
			return cached, nil
		}
	}

	merged := raw.Clone()
	if raw.Parent != "" {
		parentDef, ok := r.definitions[raw.Parent]
		if !ok {
			return nil, fmt.Errorf("registry: parent definition '%s' of '%s' not found", raw.Parent, name)
		}
		mergedParent, err := r.MergedDefinition(raw.Parent, parentDef, nil)
		if err != nil {
			return nil, err
		}
		merged.MergeFrom(mergedParent)
	}

	if containing == nil && r.ContainsDefinition(name) {
		r.mergedCache[name] = merged
	}
	return merged, nil
}

func (r *StandardRegistry) ClearMetadataCache() {
	r.mergedCache = make(map[string]*definition.Descriptor)
}

// ---------------- 钩子 ----------------

func (r *StandardRegistry) AddHook(h Hook) {
	// 重复安装的钩子移动到链尾
	for i, existing := range r.hooks {
		if existing == h {
			r.hooks = append(r.hooks[:i], r.hooks[i+1:]...)
			break
		}
	}
	r.hooks = append(r.hooks, h)
}

func (r *StandardRegistry) HookCount() int {
	return len(r.hooks)
}

// Hooks 返回当前钩子链的快照
func (r *StandardRegistry) Hooks() []Hook {
	return append([]Hook(nil), r.hooks...)
}

// applyBeforeInitHooks 依次调用所有钩子的 BeforeInit
func (r *StandardRegistry) applyBeforeInitHooks(instance any, name string) (any, error) {
	current := instance
	for _, h := range r.hooks {
		result, err := h.BeforeInit(current, name)
		if err != nil {
			return nil, err
		}
		if result != nil {
			current = result
		}
	}
	return current, nil
}

// applyAfterInitHooks 依次调用所有钩子的 AfterInit
func (r *StandardRegistry) applyAfterInitHooks(instance any, name string) (any, error) {
	current := instance
	for _, h := range r.hooks {
		result, err := h.AfterInit(current, name)
		if err != nil {
			return nil, err
		}
		if result != nil {
			current = result
		}
	}
	return current, nil
}

// ObjectFromFactory 解包工厂间接层，获取工厂产出的实际对象。
// shouldPostProcess 为 true 时对产出对象再走一遍 AfterInit 钩子链。
func (r *StandardRegistry) ObjectFromFactory(factory Factory, name string, shouldPostProcess bool) (any, error) {
	object, err := factory.Object()
	if err != nil {
		return nil, &ComponentCreationError{Name: name, Err: err}
	}
	if object == nil {
		return NullInstance, nil
	}
	if shouldPostProcess {
		object, err = r.applyAfterInitHooks(object, name)
		if err != nil {
			return nil, &ComponentCreationError{Name: name, Err: err}
		}
	}
	return object, nil
}

// ---------------- 生命周期 ----------------

// PreInstantiateSingletons 按注册顺序预实例化所有非延迟单例
func (r *StandardRegistry) PreInstantiateSingletons() error {
	names := r.DefinitionNames()
	for _, name := range names {
		raw := r.definitions[name]
		if raw == nil {
			continue
		}
		merged, err := r.MergedDefinition(name, raw, nil)
		if err != nil {
			return err
		}
		if merged.IsSingleton() && !merged.Lazy {
			if _, err := r.Get(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// DestroySingletons 销毁所有单例，先销毁依赖者再销毁被依赖者
func (r *StandardRegistry) DestroySingletons() {
	destroyed := make(map[string]bool)
	var destroy func(name string)
	destroy = func(name string) {
		if destroyed[name] {
			return
		}
		destroyed[name] = true
		for _, dependent := range r.dependents[name] {
			destroy(dependent)
		}
		instance, ok := r.singletons[name]
		if !ok || IsNullInstance(instance) {
			return
		}
		if closer, ok := instance.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				r.logger.Error("Failed to close component",
					logging.Field{Key: "name", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		}
	}
	for i := len(r.singletonOrder) - 1; i >= 0; i-- {
		destroy(r.singletonOrder[i])
	}
	r.singletons = make(map[string]any)
	r.singletonOrder = nil
}
