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

package aop

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
	"github.com/rulego/aop/utils/reflect"
	"github.com/rulego/aop/utils/str"
)

var userProxyDsl = []byte(`{
  "proxy": {
    "id": "userProxy",
    "name": "user service proxy"
  },
  "advisors": [
    {
      "id": "auth",
      "type": "before",
      "pointcut": "method startsWith 'Save'",
      "configuration": {"handler": "checkAuth"}
    }
  ]
}`)

func newTestConfig(recorder *test.CallRecorder) types.Config {
	config := NewConfig()
	config.RegisterUdf("checkAuth", func(inv types.Invocation) error {
		recorder.Record("before:" + inv.Method().Name)
		return nil
	})
	return config
}

func TestFactoryPool(t *testing.T) {
	recorder := &test.CallRecorder{}
	defer Stop()

	factory, err := New("", userProxyDsl, WithConfig(newTestConfig(recorder)))
	assert.Nil(t, err)
	assert.Equal(t, "userProxy", factory.Id())

	//同ID重复创建返回已有实例
	again, err := New("userProxy", []byte(`{"proxy":{"id":"other"}}`))
	assert.Nil(t, err)
	assert.True(t, again == factory)

	got, ok := Get("userProxy")
	assert.True(t, ok)
	assert.True(t, got == factory)

	count := 0
	Range(func(key, value any) bool {
		count++
		return true
	})
	assert.Equal(t, 1, count)

	Del("userProxy")
	_, ok = Get("userProxy")
	assert.False(t, ok)

	//删除不存在的实例无副作用
	Del("userProxy")
}

// 端到端：声明式定义 + 编程式advice，通过代理调用目标
func TestProxyEndToEnd(t *testing.T) {
	recorder := &test.CallRecorder{}
	defer Stop()

	factory, err := New("", userProxyDsl, WithConfig(newTestConfig(recorder)))
	assert.Nil(t, err)
	assert.Nil(t, factory.SetTarget(test.NewUserServiceType(), test.NewUserService()))
	assert.Nil(t, factory.AddAdvice(types.NewAfterReturningAdvice(func(inv types.Invocation, result interface{}) error {
		recorder.Record("after:" + str.ToString(result))
		return nil
	})))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	result, err := proxy.Invoke(context.Background(), "SaveUser", "2", "bob")
	assert.Nil(t, err)
	assert.Equal(t, "2", result)
	assert.Equal(t, []string{"before:SaveUser", "after:2"}, recorder.Events())

	//切点不匹配的方法只经过无条件advice
	recorder.Reset()
	result, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong", result)
	assert.Equal(t, []string{"after:pong"}, recorder.Events())
}

func TestLoadFolder(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "user_proxy.json"), userProxyDsl, 0644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not a proxy"), 0644))
	defer Stop()

	recorder := &test.CallRecorder{}
	assert.Nil(t, Load(dir, WithConfig(newTestConfig(recorder))))

	_, ok := Get("userProxy")
	assert.True(t, ok)
}

func TestNewProxyFactoryStandalone(t *testing.T) {
	recorder := &test.CallRecorder{}
	factory, err := NewProxyFactory("", userProxyDsl, WithConfig(newTestConfig(recorder)))
	assert.Nil(t, err)
	defer factory.Stop()

	//独立工厂不入池
	_, ok := Get("userProxy")
	assert.False(t, ok)
}

// Greeter 通过反射构建服务类型的目标
type Greeter struct{}

func (g *Greeter) Hello(name string) string {
	return "hello " + name
}

// 反射构建的服务类型描述符直接用于代理
func TestReflectServiceTypeProxy(t *testing.T) {
	serviceType, err := reflect.GetServiceType(&Greeter{})
	assert.Nil(t, err)

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTarget(serviceType, &Greeter{}))

	recorder := &test.CallRecorder{}
	assert.Nil(t, factory.AddAdvice(types.NewBeforeAdvice(func(inv types.Invocation) error {
		recorder.Record("before:" + inv.Method().Name)
		return nil
	})))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	result, err := proxy.Invoke(context.Background(), "Hello", "world")
	assert.Nil(t, err)
	assert.Equal(t, "hello world", result)
	assert.Equal(t, []string{"before:Hello"}, recorder.Events())
}

func TestNewProxyFactoryFromConfigFacade(t *testing.T) {
	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTarget(test.NewUserServiceType(), test.NewUserService()))
	factory.SetExposeProxy(true)

	var seen bool
	assert.Nil(t, factory.AddAdvice(types.NewBeforeAdvice(func(inv types.Invocation) error {
		_, seen = CurrentProxy(inv.Context())
		return nil
	})))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.True(t, seen)
}
