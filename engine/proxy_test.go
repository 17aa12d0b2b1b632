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

package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

// recordingSource 记录GetTarget和ReleaseTarget调用次数的动态目标源
type recordingSource struct {
	serviceType *types.ServiceType
	instance    interface{}
	gets        int32
	releases    int32
}

func (s *recordingSource) TargetType() *types.ServiceType {
	return s.serviceType
}

func (s *recordingSource) Static() bool {
	return false
}

func (s *recordingSource) GetTarget() (interface{}, error) {
	atomic.AddInt32(&s.gets, 1)
	return s.instance, nil
}

func (s *recordingSource) ReleaseTarget(target interface{}) error {
	atomic.AddInt32(&s.releases, 1)
	return nil
}

func newUserFactory(t *testing.T) (*ProxyFactory, *types.ServiceType) {
	t.Helper()
	factory := NewProxyFactoryFromConfig(NewConfig())
	serviceType := test.NewUserServiceType()
	assert.Nil(t, factory.SetTarget(serviceType, test.NewUserService()))
	return factory, serviceType
}

// 未声明接口时选择子类策略，暴露完整方法表
func TestProxySubclassWhenNoInterfaces(t *testing.T) {
	factory, _ := newUserFactory(t)

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.SubclassProxy, proxy.Kind())
	assert.Equal(t, 0, len(proxy.Interfaces()))

	result, err := proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong", result)
	result, err = proxy.Invoke(context.Background(), "FindUser", "1")
	assert.Nil(t, err)
	assert.Equal(t, "lala", result)
}

// 声明了非标记接口时选择接口策略，未声明的方法不可调用
func TestProxyInterfaceSurface(t *testing.T) {
	factory, serviceType := newUserFactory(t)
	crud := serviceType.Interfaces()[0]
	assert.Equal(t, "UserCrud", crud.Name)
	assert.Nil(t, factory.SetInterfaces(crud))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.InterfaceProxy, proxy.Kind())
	assert.Equal(t, 1, len(proxy.Interfaces()))

	result, err := proxy.Invoke(context.Background(), "FindUser", "1")
	assert.Nil(t, err)
	assert.Equal(t, "lala", result)

	//Ping在方法表上但不在接口面上
	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.True(t, errors.Is(err, types.ErrMethodNotFound))
}

// 只有标记接口不足以构建接口代理
func TestProxyMarkerInterfaceOnly(t *testing.T) {
	factory, serviceType := newUserFactory(t)
	marker := serviceType.Interfaces()[1]
	assert.Equal(t, "Auditable", marker.Name)
	assert.True(t, marker.Marker())
	assert.Nil(t, factory.SetInterfaces(marker))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.SubclassProxy, proxy.Kind())
}

// 强制子类策略覆盖接口声明
func TestProxyForceSubclass(t *testing.T) {
	factory, serviceType := newUserFactory(t)
	assert.Nil(t, factory.SetInterfaces(serviceType.Interfaces()[0]))
	factory.SetProxyTargetType(true)

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.SubclassProxy, proxy.Kind())

	//子类代理暴露完整方法表
	result, err := proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong", result)
}

// 密封类型拒绝子类代理，接口代理不受影响
func TestProxySealedType(t *testing.T) {
	serviceType := test.NewUserServiceType()
	serviceType.Sealed = true

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTarget(serviceType, test.NewUserService()))
	_, err := factory.GetProxy()
	assert.True(t, errors.Is(err, types.ErrProxyingUnsupported))
	assert.False(t, factory.IsActive())

	assert.Nil(t, factory.SetInterfaces(serviceType.Interfaces()[0]))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.InterfaceProxy, proxy.Kind())
	assert.True(t, factory.IsActive())
}

// 子类代理要求构造函数或携带实例的静态目标源
func TestProxySubclassRequiresConstructorOrInstance(t *testing.T) {
	serviceType := test.NewUserServiceType()
	serviceType.Constructor = nil

	//非静态源且无构造函数
	factory := NewProxyFactoryFromConfig(NewConfig())
	swappable := target.NewHotSwappableSource(serviceType, test.NewUserService())
	assert.Nil(t, factory.SetTargetSource(swappable))
	_, err := factory.GetProxy()
	assert.True(t, errors.Is(err, types.ErrProxyingUnsupported))

	//静态单例实例可以顶替构造函数
	assert.Nil(t, factory.SetTarget(serviceType, test.NewUserService()))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.SubclassProxy, proxy.Kind())
}

// 接口声明了类型方法表之外的方法时拒绝构建
func TestProxyInterfaceDeclaresMissingMethod(t *testing.T) {
	factory, _ := newUserFactory(t)
	assert.Nil(t, factory.SetInterfaces(types.NewServiceInterface("Broken", "FindUser", "Missing")))

	_, err := factory.GetProxy()
	assert.True(t, errors.Is(err, types.ErrProxyingUnsupported))
	assert.True(t, strings.Contains(err.Error(), "Missing"))
}

// 没有目标源的配置无法构建代理
func TestProxyNoTargetSource(t *testing.T) {
	factory := NewProxyFactoryFromConfig(NewConfig())
	_, err := factory.GetProxy()
	assert.True(t, errors.Is(err, types.ErrProxyingUnsupported))
}

func TestProxyOpaque(t *testing.T) {
	factory, _ := newUserFactory(t)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.NotNil(t, proxy.Advised())

	factory.SetOpaque(true)
	assert.Nil(t, proxy.Advised())
	factory.SetOpaque(false)
	assert.NotNil(t, proxy.Advised())
}

// ExposeProxy开启时调用内部可取回当前代理
func TestProxyExpose(t *testing.T) {
	factory, _ := newUserFactory(t)
	factory.SetExposeProxy(true)

	var seen types.Proxy
	var ok bool
	assert.Nil(t, factory.AddAdvice(types.NewBeforeAdvice(func(inv types.Invocation) error {
		seen, ok = CurrentProxy(inv.Context())
		return nil
	})))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.True(t, seen == proxy)

	//关闭后取不到
	factory.SetExposeProxy(false)
	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.False(t, ok)

	//调用之外取不到
	_, outside := CurrentProxy(context.Background())
	assert.False(t, outside)
	_, outside = CurrentProxy(nil)
	assert.False(t, outside)
}

// 早先的接口代理暴露过的接口不再全部声明时，重代理回退子类策略
func TestProxyReProxyCompatibility(t *testing.T) {
	factory, serviceType := newUserFactory(t)
	crud := serviceType.Interfaces()[0]
	extra := types.NewServiceInterface("Pinger", "Ping")
	assert.Nil(t, factory.SetInterfaces(crud, extra))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.InterfaceProxy, proxy.Kind())

	//撤回Pinger后无法构建兼容的接口代理
	assert.Nil(t, factory.SetInterfaces(crud))
	second, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.SubclassProxy, second.Kind())
}

// nil上下文替换为Background
func TestProxyInvokeNilContext(t *testing.T) {
	factory, _ := newUserFactory(t)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	result, err := proxy.Invoke(nil, "FindUser", "1")
	assert.Nil(t, err)
	assert.Equal(t, "lala", result)
}

// 声明未实现的方法调用报错
func TestProxyUnimplementedMethod(t *testing.T) {
	serviceType := test.NewUserServiceType()
	serviceType.AddMethod(types.Method{Name: "Shutdown"})

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTarget(serviceType, test.NewUserService()))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	//空链直接分派
	_, err = proxy.Invoke(context.Background(), "Shutdown")
	assert.True(t, errors.Is(err, types.ErrMethodNotFound))
	assert.True(t, strings.Contains(err.Error(), "not implemented"))

	//经过拦截链分派同样报错
	assert.Nil(t, factory.AddAdvice(types.NewBeforeAdvice(func(inv types.Invocation) error { return nil })))
	_, err = proxy.Invoke(context.Background(), "Shutdown")
	assert.True(t, errors.Is(err, types.ErrMethodNotFound))

	_, err = proxy.Invoke(context.Background(), "NoSuchMethod")
	assert.True(t, errors.Is(err, types.ErrMethodNotFound))
}

// 非静态目标源每次调用解析并释放实例
func TestProxyDynamicSourceRelease(t *testing.T) {
	serviceType := test.NewUserServiceType()
	source := &recordingSource{serviceType: serviceType, instance: test.NewUserService()}

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTargetSource(source))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	_, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.gets))
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.releases))
}

// 空目标源的代理完全由advice链提供行为
func TestProxyEmptySourceAdviceOnly(t *testing.T) {
	serviceType := types.NewServiceType("Echo")
	serviceType.AddMethod(types.Method{Name: "Say"})

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTargetSource(target.NewEmptySource(serviceType)))
	//无实例也无构造函数，通过接口面代理
	assert.Nil(t, factory.SetInterfaces(types.NewServiceInterface("Echoer", "Say")))
	assert.Nil(t, factory.AddAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		//不调用Proceed，短路到advice自身的结果
		return inv.Arguments()[0], nil
	})))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, types.InterfaceProxy, proxy.Kind())
	result, err := proxy.Invoke(context.Background(), "Say", "hello")
	assert.Nil(t, err)
	assert.Equal(t, "hello", result)
}

// 热替换目标源切换实例，不触碰代理
func TestProxyHotSwapTarget(t *testing.T) {
	serviceType := test.NewUserServiceType()
	first := test.NewUserService()
	source := target.NewHotSwappableSource(serviceType, first)

	factory := NewProxyFactoryFromConfig(NewConfig())
	assert.Nil(t, factory.SetTargetSource(source))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	_, err = proxy.Invoke(context.Background(), "SaveUser", "7", "first")
	assert.Nil(t, err)

	second := test.NewUserService()
	old, err := source.Swap(second)
	assert.Nil(t, err)
	assert.True(t, old == first)

	//替换后的写入落在新实例
	_, err = proxy.Invoke(context.Background(), "SaveUser", "8", "second")
	assert.Nil(t, err)
	_, err = proxy.Invoke(context.Background(), "FindUser", "7")
	assert.NotNil(t, err)
	result, err := proxy.Invoke(context.Background(), "FindUser", "8")
	assert.Nil(t, err)
	assert.Equal(t, "second", result)
}
