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

// Package engine provides the core functionality for building and running
// proxies: the shared proxy configuration, the adapter and component
// registries, interception chain assembly, proxy strategy selection, the
// invocation runtime and the declarative definition parser.
//
// Package engine 提供构建与运行代理的核心功能：共享的代理配置、
// 适配器与组件注册表、拦截链组装、代理策略选择、调用运行时以及
// 声明式定义解析器。
//
// Key Components:
// 关键组件：
//   - ProxyFactory: builds proxies from one shared configuration
//     ProxyFactory：从一份共享配置构建代理
//   - AdvisedSupport: the mutable configuration proxies observe
//     AdvisedSupport：代理持续观察的可变配置
//   - DefaultAdapterRegistry: resolves advice objects into interceptors
//     DefaultAdapterRegistry：将 advice 对象解析为拦截器
//   - DefaultChainFactory: assembles deterministic interception chains
//     DefaultChainFactory：组装确定性的拦截链
//   - JsonParser: decodes declarative proxy and advisor definitions
//     JsonParser：解码声明式的代理与 Advisor 定义
//
// Architecture Overview:
// 架构概述：
//
//	A ProxyFactory owns one AdvisedSupport. Proxies created by the factory
//	share that configuration and observe its later mutations: each
//	invocation resolves its interceptor chain from an immutable snapshot,
//	so in-flight calls are never affected by concurrent changes.
//
//	一个 ProxyFactory 拥有一份 AdvisedSupport。工厂创建的代理共享该配置
//	并观察其后续变更：每次调用从不可变快照解析其拦截链，
//	因此进行中的调用不受并发变更影响。
package engine

import (
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/builtin/funcs"
	"github.com/rulego/aop/utils/cache"
)

// Ensuring ProxyFactory implements types.ProxyFactory interface.
var _ types.ProxyFactory = (*ProxyFactory)(nil)

// ProxyFactory builds proxies from one shared, mutable configuration. It can
// be assembled programmatically, starting from an empty configuration, or
// loaded from a declarative definition through Config.Parser. Either way the
// factory stays attached to the configuration: proxies it creates observe
// later advisor mutations, and a declarative factory can be reloaded with a
// new definition at runtime without rebuilding its callers.
//
// ProxyFactory 从一份共享的可变配置构建代理。它可以从空配置开始以编程方式
// 组装，也可以通过 Config.Parser 从声明式定义加载。无论哪种方式，工厂都与
// 配置保持关联：它创建的代理会观察后续的 Advisor 变更，声明式工厂还可以在
// 运行时用新定义重载，而无需重建调用方。
//
// Lifecycle:
// 生命周期：
//  1. Creation with NewProxyFactory() or NewProxyFactoryFromConfig()
//     使用 NewProxyFactory() 或 NewProxyFactoryFromConfig() 创建
//  2. Target and advisors attached via the embedded configuration
//     通过内嵌配置附加目标和 Advisor
//  3. Proxy creation with GetProxy(); the first success activates the
//     configuration exactly once
//     使用 GetProxy() 创建代理；首次成功会恰好激活一次配置
//  4. Optional reloading with ReloadSelf()  使用 ReloadSelf() 可选重载
//  5. Cleanup with Stop()  使用 Stop() 清理
type ProxyFactory struct {
	// AdvisedSupport is the shared proxy configuration: target source,
	// interfaces, advisors, options and listeners.
	// AdvisedSupport 是共享的代理配置：目标源、接口、Advisor、选项和监听器。
	*AdvisedSupport

	// id is the unique identifier for the factory instance
	// id 是工厂实例的唯一标识符
	id string

	// selector decides the proxying strategy and builds proxies
	// selector 决定代理策略并构建代理
	selector ProxySelector

	// loadMu guards the definition fields against concurrent reloads
	// loadMu 保护定义字段免受并发重载影响
	loadMu sync.RWMutex

	// dsl is the raw definition the factory was last loaded from
	// dsl 是工厂最近一次加载的原始定义
	dsl []byte

	// def is the decoded proxy definition
	// def 是解码后的代理定义
	def types.ProxyDsl

	// components are the advice component instances built from the current
	// definition, destroyed when the definition is replaced
	// components 是从当前定义构建的advice组件实例，定义被替换时销毁
	components []types.AdviceComponent

	// initialized indicates whether the factory has been properly initialized
	// initialized 指示工厂是否已正确初始化
	initialized bool

	// OnUpdated is a callback function triggered when the proxy definition
	// is updated
	// OnUpdated 是代理定义更新时触发的回调函数
	OnUpdated func(id string, dsl []byte)
}

// NewProxyFactory creates a factory from a declarative definition. If id is
// empty the definition's proxy id is used, and a random one is generated
// when the definition has none either.
//
// NewProxyFactory 从声明式定义创建工厂。如果 id 为空则使用定义中的代理ID，
// 定义中也没有时生成随机ID。
func NewProxyFactory(id string, def []byte, opts ...types.ProxyFactoryOption) (*ProxyFactory, error) {
	if len(def) == 0 {
		return nil, errors.New("def can not nil")
	}
	factory := &ProxyFactory{
		id:             id,
		AdvisedSupport: NewAdvisedSupport(NewConfig()),
		selector:       &DefaultProxySelector{},
	}
	err := factory.ReloadSelf(def, opts...)
	if err == nil && id == "" {
		if factory.def.Proxy.ID != "" {
			factory.id = factory.def.Proxy.ID
		} else {
			uuId, _ := uuid.NewV4()
			factory.id = uuId.String()
		}
	}
	return factory, err
}

// NewProxyFactoryFromConfig creates an empty programmatic factory. The
// caller attaches the target, interfaces and advisors through the embedded
// configuration before requesting proxies.
//
// NewProxyFactoryFromConfig 创建空的编程式工厂。调用方在请求代理之前
// 通过内嵌配置附加目标、接口和 Advisor。
func NewProxyFactoryFromConfig(config types.Config) *ProxyFactory {
	return &ProxyFactory{
		AdvisedSupport: NewAdvisedSupport(config),
		selector:       &DefaultProxySelector{},
		initialized:    true,
	}
}

// Id returns the unique identifier of the factory instance.
// Id 返回工厂实例的唯一标识符。
func (e *ProxyFactory) Id() string {
	return e.id
}

// SetConfig updates the configuration of the factory.
// This should be called before initialization for best results.
// SetConfig 更新工厂的配置。为了获得最佳效果，应在初始化前调用。
func (e *ProxyFactory) SetConfig(config types.Config) {
	e.AdvisedSupport.Config = config
}

// SetProxySelector replaces the proxying strategy selector.
// SetProxySelector 替换代理策略选择器。
func (e *ProxyFactory) SetProxySelector(selector ProxySelector) {
	if selector != nil {
		e.selector = selector
	}
}

// Reload reloads the factory from its current definition with optional new
// configuration. This is a convenience method that uses the current DSL.
// Reload 使用可选的新配置从当前定义重载工厂。这是使用当前DSL的便捷方法。
func (e *ProxyFactory) Reload(opts ...types.ProxyFactoryOption) error {
	return e.ReloadSelf(e.DSL(), opts...)
}

// ReloadSelf rebuilds the factory from a new definition. The advisor list is
// built completely before anything is applied: a failing definition leaves
// the previous one untouched. On an active configuration listeners observe a
// single AdviceChanged for the whole replacement.
//
// ReloadSelf 从新定义重建工厂。Advisor 列表在应用之前完整构建：
// 失败的定义不会触碰之前的定义。在激活的配置上，监听器对整次替换
// 只观察到一次 AdviceChanged。
func (e *ProxyFactory) ReloadSelf(dsl []byte, opts ...types.ProxyFactoryOption) error {
	// Apply the options to the factory.
	// 将选项应用于工厂。
	for _, opt := range opts {
		_ = opt(e)
	}
	if len(dsl) == 0 {
		return errors.New("dsl can not empty")
	}
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	err := e.loadDsl(dsl)
	if err == nil && e.OnUpdated != nil {
		e.OnUpdated(e.id, dsl)
	}
	return err
}

// loadDsl decodes and applies one definition. Callers must hold loadMu.
func (e *ProxyFactory) loadDsl(dsl []byte) error {
	parser := e.AdvisedSupport.Config.Parser
	if parser == nil {
		parser = &JsonParser{}
	}
	def, err := parser.DecodeProxy(dsl)
	if err != nil {
		return err
	}
	//先完整构建advisor列表，失败时不触碰当前定义
	advisors, components, err := initAdvisors(e.AdvisedSupport.Config, &def)
	if err != nil {
		return err
	}
	//重载属于定义替换，先解除冻结再应用新定义
	e.SetFrozen(false)
	e.SetProxyTargetType(def.Proxy.ProxyTargetType)
	e.SetExposeProxy(def.Proxy.ExposeProxy)
	if err := e.SetAdvisors(advisors...); err != nil {
		for _, component := range components {
			component.Destroy()
		}
		return err
	}
	if def.Proxy.Frozen {
		e.SetFrozen(true)
	}
	//销毁旧定义的组件实例
	oldComponents := e.components
	e.components = components
	for _, component := range oldComponents {
		component.Destroy()
	}
	e.def = def
	e.dsl = dsl
	e.initialized = true
	return nil
}

// DSL returns the current definition in its original format, or nil for
// factories assembled programmatically.
// DSL 返回原始格式的当前定义，编程式组装的工厂返回nil。
func (e *ProxyFactory) DSL() []byte {
	e.loadMu.RLock()
	defer e.loadMu.RUnlock()
	return e.dsl
}

// Definition returns the decoded proxy definition structure.
// Definition 返回解码后的代理定义结构。
func (e *ProxyFactory) Definition() types.ProxyDsl {
	e.loadMu.RLock()
	defer e.loadMu.RUnlock()
	return e.def
}

// Initialized returns whether the factory has been properly initialized.
// Initialized 返回工厂是否已正确初始化。
func (e *ProxyFactory) Initialized() bool {
	e.loadMu.RLock()
	defer e.loadMu.RUnlock()
	return e.initialized
}

// GetProxy builds a proxy for the current configuration. The strategy
// selector validates the configuration and chooses between an interface
// based and a subclass based proxy; only a successful build activates the
// configuration, and only the first activation fires Activated.
//
// GetProxy 为当前配置构建代理。策略选择器校验配置并在基于接口与基于子类的
// 代理之间选择；只有构建成功才会激活配置，且只有首次激活触发 Activated。
func (e *ProxyFactory) GetProxy() (types.Proxy, error) {
	proxy, err := e.selector.NewProxy(e.AdvisedSupport)
	if err != nil {
		return nil, err
	}
	e.AdvisedSupport.activate()
	return proxy, nil
}

// Advised returns the factory's configuration surface.
// Advised 返回工厂的配置视图。
func (e *ProxyFactory) Advised() types.Advised {
	return e.AdvisedSupport
}

// Stop gracefully shuts down the factory, destroying the advice components
// it instantiated and releasing the target source.
// Stop 优雅地关闭工厂，销毁其实例化的advice组件并释放目标源。
func (e *ProxyFactory) Stop() {
	defer func() {
		if r := recover(); r != nil {
			e.AdvisedSupport.Config.Logger.Printf("ProxyFactory.Stop() panic recovered: %v", r)
		}
	}()

	e.loadMu.Lock()
	components := e.components
	e.components = nil
	e.initialized = false
	e.loadMu.Unlock()

	for _, component := range components {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.AdvisedSupport.Config.Logger.Printf("advice component destroy panic recovered: %v", r)
				}
			}()
			component.Destroy()
		}()
	}

	//释放目标源持有的资源
	if targetSource := e.TargetSource(); targetSource != nil {
		if closer, ok := targetSource.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}

// NewConfig creates a new Config and applies the options. It initializes
// all necessary components with sensible defaults.
//
// NewConfig 创建新的 Config 并应用选项。它使用合理的默认值初始化所有必要组件。
//
// Default components include:
// 默认组件包括：
//   - JSON parser for proxy definitions  代理定义的 JSON 解析器
//   - Default component registry with built-in advice  包含内置advice的默认组件注册表
//   - User-defined functions registry  用户定义函数注册表
//   - Default cache implementation  默认缓存实现
func NewConfig(opts ...types.Option) types.Config {
	c := types.NewConfig(opts...)
	if c.Parser == nil {
		c.Parser = &JsonParser{}
	}
	if c.ComponentsRegistry == nil {
		c.ComponentsRegistry = Components
	}
	if c.AdapterRegistry == nil {
		c.AdapterRegistry = Registry
	}
	// register all udfs
	// 注册所有用户定义函数
	for name, f := range funcs.ScriptFunc.GetAll() {
		c.RegisterUdf(name, f)
	}
	if c.Cache == nil {
		c.Cache = cache.DefaultCache
	}
	return c
}

// WithConfig is an option that sets the Config of the ProxyFactory.
// WithConfig 是设置 ProxyFactory 配置的选项。
func WithConfig(config types.Config) types.ProxyFactoryOption {
	return func(f types.ProxyFactory) error {
		f.SetConfig(config)
		return nil
	}
}
