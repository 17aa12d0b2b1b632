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

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/aop/api/types"
)

// Ensuring methodInvocation implements types.Invocation interface.
var _ types.Invocation = (*methodInvocation)(nil)

// proxyCtxKey is the context key under which an exposed proxy travels.
// proxyCtxKey 是暴露的代理在 context 中传递时使用的键。
type proxyCtxKey struct{}

// withCurrentProxy 将代理放入 context，仅在 ExposeProxy 开启时由代理调用。
func withCurrentProxy(ctx context.Context, proxy types.Proxy) context.Context {
	return context.WithValue(ctx, proxyCtxKey{}, proxy)
}

// CurrentProxy returns the proxy handling the current invocation.
// It only succeeds inside an invocation whose configuration enabled
// SetExposeProxy, otherwise ok is false.
//
// CurrentProxy 返回处理当前调用的代理。
// 仅在配置开启 SetExposeProxy 的调用内部有效，否则 ok 为 false。
func CurrentProxy(ctx context.Context) (types.Proxy, bool) {
	if ctx == nil {
		return nil, false
	}
	proxy, ok := ctx.Value(proxyCtxKey{}).(types.Proxy)
	return proxy, ok
}

// methodInvocation is the runtime state of one proxied method call.
// It carries the interceptor chain and a cursor over it; each Proceed call
// advances the cursor and invokes the next interceptor, and the final
// Proceed dispatches to the target method. Interceptors short-circuit by
// returning without calling Proceed. An invocation is driven by a single
// goroutine and is not safe for concurrent use.
//
// methodInvocation 是一次代理方法调用的运行时状态。
// 它携带拦截器链和链上的游标；每次 Proceed 调用推进游标并调用下一个拦截器，
// 最后一次 Proceed 分派到目标方法。拦截器通过不调用 Proceed 来短路调用。
// 一次调用由单个 goroutine 驱动，不支持并发使用。
type methodInvocation struct {
	id          string                 // Unique identifier of this invocation
	ctx         context.Context        // Context of this invocation
	serviceType *types.ServiceType     // Type of the proxied target
	method      *types.Method          // Method being invoked
	args        []interface{}          // Arguments of the call, replaceable by advice
	target      interface{}            // Resolved target instance
	proxy       types.Proxy            // Proxy that created this invocation
	chain       []types.Interceptor    // Interceptor chain for this method
	cursor      int                    // Index of the last invoked interceptor, starts at -1
	attributes  map[string]interface{} // Per-invocation attributes shared between advice
}

func newMethodInvocation(ctx context.Context, proxy types.Proxy, serviceType *types.ServiceType,
	method *types.Method, target interface{}, args []interface{}, chain []types.Interceptor) *methodInvocation {
	uuId, _ := uuid.NewV4()
	return &methodInvocation{
		id:          uuId.String(),
		ctx:         ctx,
		serviceType: serviceType,
		method:      method,
		args:        args,
		target:      target,
		proxy:       proxy,
		chain:       chain,
		cursor:      -1,
	}
}

func (inv *methodInvocation) ID() string {
	return inv.id
}

func (inv *methodInvocation) Context() context.Context {
	return inv.ctx
}

func (inv *methodInvocation) TargetType() *types.ServiceType {
	return inv.serviceType
}

func (inv *methodInvocation) Method() *types.Method {
	return inv.method
}

func (inv *methodInvocation) Arguments() []interface{} {
	return inv.args
}

// SetArguments 替换后续拦截器和目标方法看到的参数列表。
func (inv *methodInvocation) SetArguments(args ...interface{}) {
	inv.args = args
}

func (inv *methodInvocation) Target() interface{} {
	return inv.target
}

func (inv *methodInvocation) Proxy() types.Proxy {
	return inv.proxy
}

// Proceed advances to the next interceptor, or dispatches to the target
// method once the chain is exhausted. Calling Proceed again after the
// dispatch invokes the target again; around advice that needs retry
// semantics relies on this.
//
// Proceed 推进到下一个拦截器，链耗尽后分派到目标方法。
// 分派后再次调用 Proceed 会再次调用目标方法；需要重试语义的
// around advice 依赖这一行为。
func (inv *methodInvocation) Proceed() (interface{}, error) {
	inv.cursor++
	if inv.cursor < len(inv.chain) {
		return inv.chain[inv.cursor].Invoke(inv)
	}
	if inv.method.Func == nil {
		return nil, fmt.Errorf("%w: %s.%s is not implemented",
			types.ErrMethodNotFound, inv.serviceType.Name, inv.method.Name)
	}
	return inv.method.Func(inv.ctx, inv.target, inv.args)
}

// SetAttribute 设置调用级属性，供同一调用内的 advice 共享数据。
func (inv *methodInvocation) SetAttribute(key string, value interface{}) {
	if inv.attributes == nil {
		inv.attributes = make(map[string]interface{})
	}
	inv.attributes[key] = value
}

func (inv *methodInvocation) GetAttribute(key string) (interface{}, bool) {
	value, ok := inv.attributes[key]
	return value, ok
}
