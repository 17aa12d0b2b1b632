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

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
)

// Errors re-exported for facade users.
var (
	ErrUnknownAdviceType   = types.ErrUnknownAdviceType
	ErrAmbiguousAdvice     = types.ErrAmbiguousAdvice
	ErrProxyingUnsupported = types.ErrProxyingUnsupported
	ErrConfigFrozen        = types.ErrConfigFrozen
	ErrMethodNotFound      = types.ErrMethodNotFound
	ErrTargetNotAvailable  = types.ErrTargetNotAvailable
)

// NewProxyFactory creates a standalone factory from a declarative definition,
// without storing it in the pool.
// NewProxyFactory 从声明式定义创建独立工厂，不存入实例池。
func NewProxyFactory(id string, def []byte, opts ...types.ProxyFactoryOption) (types.ProxyFactory, error) {
	return engine.NewProxyFactory(id, def, opts...)
}

// NewProxyFactoryFromConfig creates an empty programmatic factory. The caller
// attaches the target, interfaces and advisors before requesting proxies.
// NewProxyFactoryFromConfig 创建空的编程式工厂。调用方在请求代理之前附加目标、接口和 Advisor。
func NewProxyFactoryFromConfig(config types.Config) *engine.ProxyFactory {
	return engine.NewProxyFactoryFromConfig(config)
}

// NewConfig creates a new Config and applies the options.
// NewConfig 创建一个新的 Config 并应用选项。
func NewConfig(opts ...types.Option) types.Config {
	return engine.NewConfig(opts...)
}

// WithConfig is an option that sets the Config of the ProxyFactory.
// WithConfig 是设置 ProxyFactory 配置的选项。
func WithConfig(config types.Config) types.ProxyFactoryOption {
	return engine.WithConfig(config)
}

// CurrentProxy returns the proxy handling the current invocation. It only
// succeeds inside a call on a configuration with ExposeProxy enabled.
// CurrentProxy 返回处理当前调用的代理。仅在开启 ExposeProxy 的配置的调用内部有效。
func CurrentProxy(ctx context.Context) (types.Proxy, bool) {
	return engine.CurrentProxy(ctx)
}
