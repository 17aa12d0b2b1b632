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

package types

// ProxyFactoryOption defines a function type for configuring a ProxyFactory.
type ProxyFactoryOption func(ProxyFactory) error

// WithConfig creates a ProxyFactoryOption to set the configuration of a ProxyFactory.
func WithConfig(config Config) ProxyFactoryOption {
	return func(f ProxyFactory) error {
		f.SetConfig(config)
		return nil
	}
}

// ProxyFactory assembles proxies from a mutable configuration. One factory
// manages exactly one proxy configuration; every proxy it hands out shares
// that configuration and observes its later mutations.
type ProxyFactory interface {
	// Id returns the identifier of the factory.
	Id() string
	// SetConfig sets the shared configuration for the factory.
	SetConfig(config Config)
	// Reload rebuilds the factory from its current definition with the given options.
	Reload(opts ...ProxyFactoryOption) error
	// ReloadSelf rebuilds the factory from a new definition.
	ReloadSelf(def []byte, opts ...ProxyFactoryOption) error
	// DSL returns the definition the factory was loaded from, or nil for
	// factories assembled programmatically.
	DSL() []byte
	// Definition returns the decoded proxy definition.
	Definition() ProxyDsl
	// Initialized checks if the factory is initialized.
	Initialized() bool
	// SetTargetSource sets the source of target instances for proxies built
	// by the factory.
	SetTargetSource(targetSource TargetSource) error
	// SetTarget wraps the instance in a singleton target source.
	SetTarget(serviceType *ServiceType, instance interface{}) error
	// SetInterfaces declares the interfaces the proxies implement.
	SetInterfaces(interfaces ...*ServiceInterface) error
	// AddAdvisor appends an advisor to the configuration.
	AddAdvisor(advisor Advisor) error
	// AddAdvice wraps a recognized advice object and appends it with default
	// order and an always-matching pointcut.
	AddAdvice(advice interface{}) error
	// GetProxy builds a proxy for the current configuration. The first
	// successful call activates the configuration.
	GetProxy() (Proxy, error)
	// Advised returns the factory's configuration read surface.
	Advised() Advised
	// AddListener registers a lifecycle observer on the configuration.
	AddListener(listener ProxyListener)
	// Stop releases the factory and the advice it instantiated.
	Stop()
}

// ProxyFactoryPool is an interface for a pool of proxy factories.
type ProxyFactoryPool interface {
	// Load loads all proxy definitions from the folder and its subfolders
	// into the factory pool.
	Load(folderPath string, opts ...ProxyFactoryOption) error
	// New creates a new ProxyFactory and stores it in the pool. An existing
	// factory with the id is returned unchanged.
	New(id string, def []byte, opts ...ProxyFactoryOption) (ProxyFactory, error)
	// Get retrieves a ProxyFactory by its ID.
	Get(id string) (ProxyFactory, bool)
	// Del deletes a ProxyFactory instance by its ID.
	Del(id string)
	// Stop stops and releases all ProxyFactory instances.
	Stop()
	// Reload reloads all ProxyFactory instances.
	Reload(opts ...ProxyFactoryOption)
	// Range iterates over all ProxyFactory instances.
	Range(f func(key, value any) bool)
}

// Parser 代理定义文件DSL解析器
// 默认使用JSON方式。可以实现自定义的DSL格式，
// 然后通过该方式注册到工厂中：`aop.NewConfig(types.WithParser(&MyParser{}))`
type Parser interface {
	// DecodeProxy 从描述文件解析代理定义结构体
	DecodeProxy(dsl []byte) (ProxyDsl, error)
	// DecodeAdvisor 从描述文件解析单个Advisor定义结构体
	DecodeAdvisor(dsl []byte) (*AdvisorDsl, error)
	// EncodeProxy 把代理定义结构体转换成描述文件
	EncodeProxy(def interface{}) ([]byte, error)
	// EncodeAdvisor 把Advisor定义结构体转换成描述文件
	EncodeAdvisor(def interface{}) ([]byte, error)
}
