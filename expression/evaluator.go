package expression

import (
	"fmt"
	"strings"

	"github.com/gocrud/beans/config"
	"github.com/gocrud/beans/definition"
)

// Evaluator 表达式求值能力。
// 值解析器对每个字符串字面量调用一次；不是表达式时必须原样返回输入，
// 解析器依赖这一点判断字面量是否为动态值。
type Evaluator interface {
	Evaluate(raw string, owner *definition.Descriptor) (any, error)
}

// Passthrough 返回不做任何求值的求值器。
func Passthrough() Evaluator {
	return passthrough{}
}

type passthrough struct{}

func (passthrough) Evaluate(raw string, _ *definition.Descriptor) (any, error) {
	return raw, nil
}

// PlaceholderEvaluator 解析 ${key} 和 ${key:default} 形式的配置占位符。
type PlaceholderEvaluator struct {
	configuration config.Configuration
}

// NewPlaceholderEvaluator 创建基于配置的占位符求值器
func NewPlaceholderEvaluator(cfg config.Configuration) *PlaceholderEvaluator {
	return &PlaceholderEvaluator{configuration: cfg}
}

func (e *PlaceholderEvaluator) Evaluate(raw string, _ *definition.Descriptor) (any, error) {
	if !strings.Contains(raw, "${") {
		return raw, nil
	}

	var b strings.Builder
	rest := raw
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		placeholder := rest[start+2 : end]

		key := placeholder
		defaultValue := ""
		hasDefault := false
		if idx := strings.Index(placeholder, ":"); idx >= 0 {
			// 配置路径本身用 ":" 分层，因此只把最后一个 ":" 之后的部分当默认值，
			// 且仅在该路径不存在时启用
			if !e.configuration.Contains(placeholder) {
				key = placeholder[:strings.LastIndex(placeholder, ":")]
				defaultValue = placeholder[strings.LastIndex(placeholder, ":")+1:]
				hasDefault = true
			}
		}

		switch {
		case e.configuration.Contains(placeholder):
			b.WriteString(e.configuration.Get(placeholder))
		case hasDefault && e.configuration.Contains(key):
			b.WriteString(e.configuration.Get(key))
		case hasDefault:
			b.WriteString(defaultValue)
		default:
			return nil, fmt.Errorf("expression: unresolvable placeholder '${%s}'", placeholder)
		}

		rest = rest[end+1:]
	}
	return b.String(), nil
}
