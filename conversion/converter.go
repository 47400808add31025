package conversion

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Converter 通用类型转换能力。
// 值解析器把它当作不透明的 convert(value, targetType) 使用。
type Converter interface {
	// ConvertIfNecessary 在必要时将 value 转换为 targetType。
	// targetType 为 nil 或 value 已经匹配时原样返回。
	ConvertIfNecessary(value any, targetType reflect.Type) (any, error)
}

// defaultConverter 基于反射和 strconv 的默认实现
type defaultConverter struct{}

// NewDefaultConverter 创建默认转换器
func NewDefaultConverter() Converter {
	return &defaultConverter{}
}

var durationType = reflect.TypeOf(time.Duration(0))

func (c *defaultConverter) ConvertIfNecessary(value any, targetType reflect.Type) (any, error) {
	if targetType == nil || value == nil {
		return value, nil
	}

	valueType := reflect.TypeOf(value)
	if valueType.AssignableTo(targetType) {
		return value, nil
	}

	// 字符串到标量的解析
	if s, ok := value.(string); ok {
		return c.convertString(s, targetType)
	}

	if valueType.ConvertibleTo(targetType) {
		return reflect.ValueOf(value).Convert(targetType).Interface(), nil
	}

	if targetType.Kind() == reflect.String {
		return fmt.Sprintf("%v", value), nil
	}

	return nil, fmt.Errorf("conversion: cannot convert %T to %v", value, targetType)
}

func (c *defaultConverter) convertString(s string, targetType reflect.Type) (any, error) {
	if targetType == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("conversion: invalid duration '%s': %w", s, err)
		}
		return d, nil
	}

	switch targetType.Kind() {
	case reflect.String:
		return s, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("conversion: invalid bool '%s': %w", s, err)
		}
		return v, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("conversion: invalid integer '%s': %w", s, err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("conversion: invalid unsigned integer '%s': %w", s, err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, targetType.Bits())
		if err != nil {
			return nil, fmt.Errorf("conversion: invalid float '%s': %w", s, err)
		}
		return reflect.ValueOf(v).Convert(targetType).Interface(), nil
	default:
		return nil, fmt.Errorf("conversion: cannot convert string '%s' to %v", s, targetType)
	}
}
