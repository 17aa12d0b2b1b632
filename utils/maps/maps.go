package maps

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Map2Struct Decode takes an input structure and uses reflection to translate it to
// the output structure. output must be a pointer to a map or struct.
// 支持 "5s" 这类时间字符串自动转 time.Duration
func Map2Struct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		Result: output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Get 通过字段名获取map值，支持`.`方式获取多级字段名值，例如：address.city
// 如果字段不存在，返回nil
func Get(input interface{}, fieldName string) interface{} {
	if fieldName == "" {
		return nil
	}
	var current = input
	for _, field := range strings.Split(fieldName, ".") {
		switch v := current.(type) {
		case map[string]interface{}:
			current = v[field]
		case map[string]string:
			if value, ok := v[field]; ok {
				current = value
			} else {
				return nil
			}
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}
