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
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test/assert"
	"github.com/rulego/aop/utils/cache"
)

func cacheConfig() types.Config {
	config := types.NewConfig()
	config.Cache = cache.NewMemoryCache(time.Minute)
	return config
}

func TestCacheAdvice(t *testing.T) {
	component := &Cache{}
	assert.Equal(t, "cache", component.Type())
	assert.Nil(t, component.Init(cacheConfig(), types.Configuration{
		"keyTemplate": "user:${args[0]}",
		"ttl":         "10m",
	}))

	interceptor := component.Advice().Around()

	//未命中：执行目标并缓存结果
	inv := newFakeInvocation("FindUser", func() (interface{}, error) { return "lala", nil }, "1")
	result, err := interceptor.Invoke(inv)
	assert.Nil(t, err)
	assert.Equal(t, "lala", result)
	assert.Equal(t, int32(1), inv.ProceedCount())

	//命中：短路目标
	inv = newFakeInvocation("FindUser", func() (interface{}, error) { return "changed", nil }, "1")
	result, err = interceptor.Invoke(inv)
	assert.Nil(t, err)
	assert.Equal(t, "lala", result)
	assert.Equal(t, int32(0), inv.ProceedCount())

	//不同key互不影响
	inv = newFakeInvocation("FindUser", func() (interface{}, error) { return "other", nil }, "2")
	result, err = interceptor.Invoke(inv)
	assert.Nil(t, err)
	assert.Equal(t, "other", result)
}

func TestCacheAdviceErrorNotCached(t *testing.T) {
	component := &Cache{}
	assert.Nil(t, component.Init(cacheConfig(), types.Configuration{
		"keyTemplate": "${type}:${method}",
	}))

	interceptor := component.Advice().Around()
	boom := errors.New("boom")

	inv := newFakeInvocation("FindUser", func() (interface{}, error) { return nil, boom })
	_, err := interceptor.Invoke(inv)
	assert.True(t, errors.Is(err, boom))

	//失败结果未入缓存，下一次调用继续到达目标
	inv = newFakeInvocation("FindUser", func() (interface{}, error) { return "ok", nil })
	result, err := interceptor.Invoke(inv)
	assert.Nil(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, int32(1), inv.ProceedCount())
}

func TestCacheAdviceInitErrors(t *testing.T) {
	component := &Cache{}
	//key模板不能为空
	assert.NotNil(t, component.Init(cacheConfig(), types.Configuration{"keyTemplate": ""}))

	//缓存未配置时调用报错
	component = &Cache{}
	assert.Nil(t, component.Init(types.NewConfig(), types.Configuration{"keyTemplate": "k"}))
	component.cache = nil
	inv := newFakeInvocation("Ping", nil)
	_, err := component.Advice().Around().Invoke(inv)
	assert.True(t, errors.Is(err, types.ErrCacheNotInitialized))
}
