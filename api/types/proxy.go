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

import "context"

// ProxyKind identifies the proxying strategy a proxy was built with.
type ProxyKind int

const (
	// InterfaceProxy exposes only the methods declared by the target's
	// non-marker interfaces.
	InterfaceProxy ProxyKind = iota
	// SubclassProxy exposes the target type's full concrete method table.
	SubclassProxy
)

// String returns a stable strategy name.
func (k ProxyKind) String() string {
	switch k {
	case InterfaceProxy:
		return "interface-based"
	case SubclassProxy:
		return "subclass-based"
	default:
		return "unknown"
	}
}

// Proxy is an intercepted view of a target object. Every call issued through
// Invoke runs the advisor chain matched for that method before (and around)
// the target method itself.
//
// Proxy 是目标对象的受拦截视图。通过 Invoke 发出的每次调用都会先（并环绕）
// 执行为该方法匹配出的 Advisor 链，再到达目标方法本身。
type Proxy interface {
	// Kind returns the strategy this proxy was built with.
	Kind() ProxyKind
	// TargetType returns the descriptor of the proxied type.
	TargetType() *ServiceType
	// Interfaces returns the interface surface this proxy exposes. Empty for
	// subclass-based proxies.
	Interfaces() []*ServiceInterface
	// Invoke runs the named method through the interception chain.
	Invoke(ctx context.Context, methodName string, args ...interface{}) (interface{}, error)
	// Advised returns the configuration this proxy was created from. Changes
	// made through the configuration are visible to subsequent invocations.
	Advised() Advised
}

// Advised is the read surface of a proxy configuration. Proxies and
// listeners observe configurations through it.
//
// Advised 是代理配置的只读视图。代理和监听器通过它观察配置。
type Advised interface {
	// Advisors returns the current advisor list in registration order.
	Advisors() AdvisorList
	// AdvisorCount returns the number of registered advisors.
	AdvisorCount() int
	// TargetSource returns the configured target source, or nil.
	TargetSource() TargetSource
	// Interfaces returns the declared proxyable interfaces.
	Interfaces() []*ServiceInterface
	// IsActive reports whether the configuration has produced a proxy.
	IsActive() bool
	// IsFrozen reports whether structural mutation is disallowed.
	IsFrozen() bool
	// Revision returns the structural revision counter. It increases on
	// every structural mutation and never decreases.
	Revision() uint64
}

// ProxyListener observes a proxy configuration's lifecycle. Callbacks run
// synchronously inside the triggering call; a panicking listener is recovered
// and logged, and never stops delivery to the remaining listeners.
//
// ProxyListener 观察代理配置的生命周期。回调在触发调用内部同步执行；
// 监听器内的 panic 会被恢复并记录日志，绝不会阻断后续监听器的投递。
type ProxyListener interface {
	// Activated fires exactly once per listener: when the configuration
	// creates its first proxy, or on registration if already active.
	Activated(advised Advised)
	// AdviceChanged fires on every structural mutation while active, before
	// the mutating call returns.
	AdviceChanged(advised Advised)
}

// ListenerFuncs adapts plain functions to the ProxyListener interface.
// Either field may be nil.
type ListenerFuncs struct {
	OnActivated     func(advised Advised)
	OnAdviceChanged func(advised Advised)
}

func (l *ListenerFuncs) Activated(advised Advised) {
	if l.OnActivated != nil {
		l.OnActivated(advised)
	}
}

func (l *ListenerFuncs) AdviceChanged(advised Advised) {
	if l.OnAdviceChanged != nil {
		l.OnAdviceChanged(advised)
	}
}
