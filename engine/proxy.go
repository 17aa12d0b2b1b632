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
	"fmt"

	"github.com/rulego/aop/api/types"
)

// ProxySelector decides which proxying strategy serves a configuration and
// builds proxies with it. Replaceable on the factory for custom strategies.
//
// ProxySelector 决定哪种代理策略服务于给定配置，并据此构建代理。
// 可在工厂上替换以实现自定义策略。
type ProxySelector interface {
	// Choose returns the strategy the selector would use for the configuration.
	Choose(advised *AdvisedSupport) types.ProxyKind
	// NewProxy validates the configuration against the chosen strategy and
	// builds a proxy, or fails with ErrProxyingUnsupported.
	NewProxy(advised *AdvisedSupport) (types.Proxy, error)
}

// DefaultProxySelector picks interface-based proxying whenever the target
// declares a usable interface surface and falls back to subclass-based
// proxying otherwise.
//
// Decision order:
//  1. force-subclass option set;
//  2. no non-marker interface declared;
//  3. an earlier interface-based proxy exposed interfaces that are no longer
//     all declared, so a compatible re-proxy is impossible;
//  4. otherwise interface-based.
type DefaultProxySelector struct {
}

// Ensuring DefaultProxySelector implements ProxySelector interface.
var _ ProxySelector = (*DefaultProxySelector)(nil)

func (s *DefaultProxySelector) Choose(advised *AdvisedSupport) types.ProxyKind {
	if advised.IsProxyTargetType() {
		return types.SubclassProxy
	}
	declared := advised.Interfaces()
	proxyable := proxyableInterfaces(declared)
	if len(proxyable) == 0 {
		return types.SubclassProxy
	}
	if exposed := advised.lastExposed(); len(exposed) > 0 {
		names := make(map[string]struct{}, len(declared))
		for _, si := range declared {
			names[si.Name] = struct{}{}
		}
		for _, name := range exposed {
			if _, ok := names[name]; !ok {
				return types.SubclassProxy
			}
		}
	}
	return types.InterfaceProxy
}

func (s *DefaultProxySelector) NewProxy(advised *AdvisedSupport) (types.Proxy, error) {
	serviceType := advised.TargetType()
	if serviceType == nil {
		return nil, fmt.Errorf("%w: no target source configured", types.ErrProxyingUnsupported)
	}
	switch kind := s.Choose(advised); kind {
	case types.InterfaceProxy:
		interfaces := proxyableInterfaces(advised.Interfaces())
		surface := make(map[string]struct{})
		names := make([]string, 0, len(interfaces))
		for _, si := range interfaces {
			names = append(names, si.Name)
			for _, methodName := range si.MethodNames() {
				if _, ok := serviceType.Method(methodName); !ok {
					return nil, fmt.Errorf("%w: interface %s declares method %s absent from type %s",
						types.ErrProxyingUnsupported, si.Name, methodName, serviceType.Name)
				}
				surface[methodName] = struct{}{}
			}
		}
		advised.rememberExposed(names)
		return &serviceProxy{advised: advised, kind: kind, interfaces: interfaces, surface: surface}, nil
	case types.SubclassProxy:
		if serviceType.Sealed {
			return nil, fmt.Errorf("%w: type %s is sealed", types.ErrProxyingUnsupported, serviceType.Name)
		}
		if serviceType.Constructor == nil && !hasStaticInstance(advised.TargetSource()) {
			return nil, fmt.Errorf("%w: type %s has no constructor and no static target instance",
				types.ErrProxyingUnsupported, serviceType.Name)
		}
		return &serviceProxy{advised: advised, kind: kind}, nil
	default:
		return nil, fmt.Errorf("%w: unknown proxy kind", types.ErrProxyingUnsupported)
	}
}

// proxyableInterfaces filters out marker interfaces, which never make a type
// interface-proxyable on their own.
func proxyableInterfaces(interfaces []*types.ServiceInterface) []*types.ServiceInterface {
	var out []*types.ServiceInterface
	for _, si := range interfaces {
		if si != nil && !si.Marker() {
			out = append(out, si)
		}
	}
	return out
}

// hasStaticInstance reports whether the target source can stand in for a
// missing constructor: a static source holding a live instance.
func hasStaticInstance(targetSource types.TargetSource) bool {
	if targetSource == nil || !targetSource.Static() {
		return false
	}
	instance, err := targetSource.GetTarget()
	return err == nil && instance != nil
}

// serviceProxy is the intercepted view of a target served by an
// AdvisedSupport. The proxy itself is stateless beyond its exposed surface;
// every Invoke reads the configuration's current snapshot, so structural
// mutations are visible to calls that start after them.
//
// serviceProxy 是由 AdvisedSupport 提供服务的目标受拦截视图。
// 代理本身除暴露面之外无状态；每次 Invoke 读取配置的当前快照，
// 因此结构变更对之后开始的调用可见。
type serviceProxy struct {
	advised    *AdvisedSupport
	kind       types.ProxyKind
	interfaces []*types.ServiceInterface
	// surface is the exposed method set; nil exposes the full method table.
	surface map[string]struct{}
}

// Ensuring serviceProxy implements types.Proxy interface.
var _ types.Proxy = (*serviceProxy)(nil)

func (p *serviceProxy) Kind() types.ProxyKind {
	return p.kind
}

func (p *serviceProxy) TargetType() *types.ServiceType {
	return p.advised.TargetType()
}

func (p *serviceProxy) Interfaces() []*types.ServiceInterface {
	return append([]*types.ServiceInterface(nil), p.interfaces...)
}

// Advised returns the underlying configuration, or nil for opaque proxies.
func (p *serviceProxy) Advised() types.Advised {
	if p.advised.IsOpaque() {
		return nil
	}
	return p.advised
}

// Invoke runs the named method through the interception chain matched for it.
//
// The call resolves the method against the exposed surface, obtains the
// interceptor chain for the configuration's current revision, resolves the
// target instance from the target source, and walks the chain. An empty
// chain dispatches straight to the target without allocating an invocation.
func (p *serviceProxy) Invoke(ctx context.Context, methodName string, args ...interface{}) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	serviceType := p.advised.TargetType()
	if serviceType == nil {
		return nil, fmt.Errorf("%w: no target source configured", types.ErrTargetNotAvailable)
	}
	if p.surface != nil {
		if _, ok := p.surface[methodName]; !ok {
			return nil, types.MethodNotFoundError(serviceType, methodName)
		}
	}
	method, ok := serviceType.Method(methodName)
	if !ok {
		return nil, types.MethodNotFoundError(serviceType, methodName)
	}

	chain, err := p.advised.interceptorsFor(serviceType, method)
	if err != nil {
		return nil, err
	}

	targetSource := p.advised.TargetSource()
	var targetInstance interface{}
	if targetSource != nil {
		targetInstance, err = targetSource.GetTarget()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTargetNotAvailable, err)
		}
		if !targetSource.Static() {
			defer func() {
				_ = targetSource.ReleaseTarget(targetInstance)
			}()
		}
	}

	if p.advised.IsExposeProxy() {
		ctx = withCurrentProxy(ctx, p)
	}

	if len(chain) == 0 {
		if method.Func == nil {
			return nil, fmt.Errorf("%w: %s.%s is not implemented",
				types.ErrMethodNotFound, serviceType.Name, method.Name)
		}
		return method.Func(ctx, targetInstance, args)
	}
	inv := newMethodInvocation(ctx, p, serviceType, method, targetInstance, args, chain)
	return inv.Proceed()
}
