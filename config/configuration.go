package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Configuration 配置接口
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// Contains 报告配置键是否存在
	Contains(key string) bool
	// Bind 绑定配置节到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{sources: make([]ConfigurationSource, 0)}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.sources = append(b.sources, source)
	return b
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// Build 构建配置对象，后加的源覆盖先加的源
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	merged := make(map[string]any)
	for _, source := range b.sources {
		data, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("config: failed to load source %s: %w", source.Name(), err)
		}
		mergeMaps(merged, data)
	}

	cfg := &configuration{}
	cfg.data.Store(merged)
	return cfg, nil
}

// configuration 配置实现，基于 atomic.Value 的无锁读取
type configuration struct {
	data atomic.Value // map[string]any
}

func (c *configuration) snapshot() map[string]any {
	val := c.data.Load()
	if val == nil {
		return nil
	}
	return val.(map[string]any)
}

// lookup 按 ":" 分隔的路径查找嵌套值
func (c *configuration) lookup(key string) (any, bool) {
	parts := strings.Split(key, ":")
	var current any = c.snapshot()
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (c *configuration) Get(key string) string {
	val, ok := c.lookup(key)
	if !ok || val == nil {
		return ""
	}
	return fmt.Sprintf("%v", val)
}

func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if !c.Contains(key) {
		return defaultValue
	}
	return c.Get(key)
}

func (c *configuration) GetInt(key string) (int, error) {
	val := c.Get(key)
	if val == "" {
		return 0, fmt.Errorf("config: key '%s' not found", key)
	}
	return strconv.Atoi(val)
}

func (c *configuration) GetBool(key string) (bool, error) {
	val := c.Get(key)
	if val == "" {
		return false, fmt.Errorf("config: key '%s' not found", key)
	}
	return strconv.ParseBool(val)
}

func (c *configuration) Contains(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *configuration) Bind(key string, target any) error {
	val, ok := c.lookup(key)
	if !ok {
		return fmt.Errorf("config: section '%s' not found", key)
	}
	// 通过 YAML 序列化往返实现结构体绑定
	raw, err := yaml.Marshal(val)
	if err != nil {
		return fmt.Errorf("config: failed to marshal section '%s': %w", key, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("config: failed to bind section '%s': %w", key, err)
	}
	return nil
}

func (c *configuration) GetAll() map[string]any {
	return c.snapshot()
}

// mergeMaps 深度合并 src 到 dst，src 的值优先
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	data := make(map[string]any)
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid yaml in %s: %w", s.Path, err)
	}
	return normalizeMap(data), nil
}

// EnvironmentVariableSource 环境变量配置源
// 变量名中的 "__" 作为层级分隔符，例如 APP__DB__HOST -> db:host
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("Env(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		name, value := pair[0], pair[1]
		if s.Prefix != "" {
			if !strings.HasPrefix(name, s.Prefix) {
				continue
			}
			name = strings.TrimPrefix(name, s.Prefix)
			name = strings.TrimPrefix(name, "_")
		}
		key := strings.ToLower(strings.ReplaceAll(name, "__", ":"))
		setNestedValue(result, key, value)
	}
	return result, nil
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for k, v := range s.Data {
		if m, ok := v.(map[string]any); ok {
			setNestedValue(result, k, normalizeMap(m))
		} else {
			setNestedValue(result, k, v)
		}
	}
	return result, nil
}

// setNestedValue 按 ":" 路径写入嵌套 map
func setNestedValue(data map[string]any, key string, value any) {
	parts := strings.Split(key, ":")
	current := data
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
}

// normalizeMap 将 YAML 解码出的 map 键统一为字符串
func normalizeMap(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = normalizeValue(v)
	}
	return result
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[fmt.Sprintf("%v", k)] = normalizeValue(inner)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}
