/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package advice

import (
	"errors"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/el"
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&Cache{})
}

// CacheConfiguration 组件配置
type CacheConfiguration struct {
	// KeyTemplate 缓存key模板，支持表达式变量，
	// 例如：user:${args[0]} 或 ${type}:${method}
	// 可用变量：type 目标类型名、method 方法名、args 参数列表
	KeyTemplate string
	// Ttl 缓存过期时间，字符串格式，例如：10m、1h。空或0表示不过期
	Ttl string
}

// Cache serves successful invocation results from types.Config.Cache. The
// cache key comes from an expression template over the invocation; a hit
// short-circuits the rest of the chain and the target, a miss proceeds and
// stores the result under the key with the configured ttl. Errors are never
// cached.
//
// Cache 从 types.Config.Cache 提供成功的调用结果。缓存key由调用上下文的
// 表达式模板生成；命中时短路链的其余部分和目标方法，未命中时继续执行
// 并以配置的ttl存储结果。错误不会被缓存。
type Cache struct {
	//组件配置
	Config CacheConfiguration
	//key模板
	keyTemplate *el.MixedTemplate
	cache       types.Cache
}

// Ensuring Cache implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*Cache)(nil)

// Type 组件类型
func (x *Cache) Type() string {
	return "cache"
}

func (x *Cache) New() types.AdviceComponent {
	return &Cache{Config: CacheConfiguration{
		KeyTemplate: "${type}:${method}",
		Ttl:         "10m",
	}}
}

// Init 初始化组件
func (x *Cache) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.KeyTemplate == "" {
		return errors.New("keyTemplate can not empty")
	}
	//初始化key模板
	template, err := el.NewMixedTemplate(x.Config.KeyTemplate)
	if err != nil {
		return err
	}
	x.keyTemplate = template
	x.cache = config.Cache
	return nil
}

func (x *Cache) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		if x.cache == nil {
			return nil, types.ErrCacheNotInitialized
		}
		key := x.keyTemplate.ExecuteAsString(x.templateEnv(inv))
		if x.cache.Has(key) {
			return x.cache.Get(key), nil
		}
		result, err := inv.Proceed()
		if err != nil {
			return result, err
		}
		if cacheErr := x.cache.Set(key, result, x.Config.Ttl); cacheErr != nil {
			return result, cacheErr
		}
		return result, nil
	}))
}

// Destroy 销毁组件
func (x *Cache) Destroy() {
}

func (x *Cache) templateEnv(inv types.Invocation) map[string]any {
	return map[string]any{
		"type":   inv.TargetType().Name,
		"method": inv.Method().Name,
		"args":   inv.Arguments(),
	}
}
