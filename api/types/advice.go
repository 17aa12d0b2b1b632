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

import (
	"context"
	"fmt"
)

// AdviceKind identifies the variant carried by an Advice value. The builtin
// kinds form a closed set; AdviceCustom is the single extension point and is
// resolved through registered adapters.
//
// AdviceKind 标识 Advice 值携带的变体。内置种类构成一个封闭集合；
// AdviceCustom 是唯一的扩展点，通过注册的适配器解析。
type AdviceKind int

const (
	// AdviceAround wraps the invocation completely. The interceptor decides
	// whether and when to call Invocation.Proceed.
	// AdviceAround 完全包裹调用。拦截器决定是否以及何时调用 Invocation.Proceed。
	AdviceAround AdviceKind = iota
	// AdviceBefore runs before the target method. Returning an error aborts
	// the invocation.
	// AdviceBefore 在目标方法之前运行。返回错误将中止调用。
	AdviceBefore
	// AdviceAfterReturning runs only after a successful invocation and can
	// observe the result.
	// AdviceAfterReturning 仅在调用成功后运行，可以观察结果。
	AdviceAfterReturning
	// AdviceAfterThrowing runs only when the invocation returns an error.
	// AdviceAfterThrowing 仅在调用返回错误时运行。
	AdviceAfterThrowing
	// AdviceCustom carries an opaque payload understood by a registered
	// AdviceAdapter.
	// AdviceCustom 携带由注册的 AdviceAdapter 理解的不透明负载。
	AdviceCustom
)

// String returns a stable, human-readable kind name.
func (k AdviceKind) String() string {
	switch k {
	case AdviceAround:
		return "around"
	case AdviceBefore:
		return "before"
	case AdviceAfterReturning:
		return "afterReturning"
	case AdviceAfterThrowing:
		return "afterThrowing"
	case AdviceCustom:
		return "custom"
	default:
		return fmt.Sprintf("adviceKind(%d)", int(k))
	}
}

// Interceptor is the primitive unit an interception chain is assembled from.
// Implementations receive the live invocation and either call inv.Proceed()
// to continue down the chain or return directly to short-circuit it.
//
// Interceptor 是组装拦截链的基本单元。实现接收当前调用，
// 可以调用 inv.Proceed() 继续链的执行，或直接返回以短路该链。
type Interceptor interface {
	Invoke(inv Invocation) (interface{}, error)
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(inv Invocation) (interface{}, error)

// Invoke calls f(inv).
func (f InterceptorFunc) Invoke(inv Invocation) (interface{}, error) {
	return f(inv)
}

// BeforeFunc is the payload of AdviceBefore. A non-nil error aborts the
// invocation before the target method runs.
type BeforeFunc func(inv Invocation) error

// AfterReturningFunc is the payload of AdviceAfterReturning. It observes the
// successful result; a non-nil error replaces the successful outcome.
type AfterReturningFunc func(inv Invocation, result interface{}) error

// ThrowsHandler pairs an error matcher with its handler. Exactly one of
// Target or Matches should be set; when both are nil the handler matches
// every error.
//
// ThrowsHandler 将错误匹配器与其处理函数配对。Target 和 Matches 只应设置其一；
// 两者都为 nil 时处理器匹配所有错误。
type ThrowsHandler struct {
	// Target matches a specific error value via errors.Is.
	Target error
	// Matches is a free-form predicate, typically wrapping errors.As.
	Matches func(err error) bool
	// Handle observes the matched error. A non-nil return value replaces the
	// propagated error; returning nil keeps the original.
	Handle func(inv Invocation, err error) error
}

// Advice is the unit of cross-cutting behavior attached to an Advisor.
// It is a tagged variant: exactly one payload is populated, selected by Kind.
// Values are immutable after construction and safe for concurrent use.
//
// Advice 是附加到 Advisor 的横切行为单元。它是一个带标签的变体：
// 由 Kind 选择，恰好填充一个负载。构造后不可变，可安全并发使用。
type Advice struct {
	kind           AdviceKind
	around         Interceptor
	before         BeforeFunc
	afterReturning AfterReturningFunc
	throws         []ThrowsHandler
	custom         interface{}
}

// NewAroundAdvice creates an around advice from an interceptor.
func NewAroundAdvice(interceptor Interceptor) *Advice {
	return &Advice{kind: AdviceAround, around: interceptor}
}

// NewBeforeAdvice creates a before advice.
func NewBeforeAdvice(fn BeforeFunc) *Advice {
	return &Advice{kind: AdviceBefore, before: fn}
}

// NewAfterReturningAdvice creates an after-returning advice.
func NewAfterReturningAdvice(fn AfterReturningFunc) *Advice {
	return &Advice{kind: AdviceAfterReturning, afterReturning: fn}
}

// NewThrowsAdvice creates an after-throwing advice. Handlers are consulted in
// declaration order against each link of the error chain, outermost first;
// the first matching handler wins.
func NewThrowsAdvice(handlers ...ThrowsHandler) *Advice {
	return &Advice{kind: AdviceAfterThrowing, throws: handlers}
}

// NewCustomAdvice creates an advice whose payload is interpreted by a
// registered AdviceAdapter.
func NewCustomAdvice(payload interface{}) *Advice {
	return &Advice{kind: AdviceCustom, custom: payload}
}

// Kind returns the variant tag.
func (a *Advice) Kind() AdviceKind {
	return a.kind
}

// Around returns the interceptor payload, or nil for other kinds.
func (a *Advice) Around() Interceptor {
	return a.around
}

// Before returns the before payload, or nil for other kinds.
func (a *Advice) Before() BeforeFunc {
	return a.before
}

// AfterReturning returns the after-returning payload, or nil for other kinds.
func (a *Advice) AfterReturning() AfterReturningFunc {
	return a.afterReturning
}

// Throws returns the throws handlers, or nil for other kinds.
func (a *Advice) Throws() []ThrowsHandler {
	return a.throws
}

// Custom returns the opaque payload, or nil for builtin kinds.
func (a *Advice) Custom() interface{} {
	return a.custom
}

// Invocation is the runtime view of one intercepted method call. It is
// created by a proxy, threaded through every interceptor in the chain, and
// drives the target dispatch when the chain is exhausted.
//
// Invocation 是一次被拦截方法调用的运行时视图。由代理创建，
// 贯穿链中的每个拦截器，并在链耗尽时驱动目标方法的调用。
type Invocation interface {
	// ID returns the unique id of this invocation.
	ID() string
	// Context returns the caller context. Never nil.
	Context() context.Context
	// TargetType returns the descriptor of the proxied type.
	TargetType() *ServiceType
	// Method returns the method being invoked.
	Method() *Method
	// Arguments returns the live argument slice. Mutations through
	// SetArguments are visible to downstream interceptors and the target.
	Arguments() []interface{}
	// SetArguments replaces the argument list for the rest of the chain.
	SetArguments(args ...interface{})
	// Target returns the resolved target instance. Nil for advice-only
	// (empty target) invocations.
	Target() interface{}
	// Proxy returns the proxy this invocation was issued through.
	Proxy() Proxy
	// Proceed transfers control to the next interceptor, or to the target
	// method when the chain is exhausted. Each interceptor should call it at
	// most once per invocation of its own body; not calling it short-circuits
	// the remainder of the chain.
	Proceed() (interface{}, error)
	// SetAttribute stores free-form per-invocation state, letting cooperating
	// advice share data down the chain.
	SetAttribute(key string, value interface{})
	// GetAttribute returns state stored by SetAttribute.
	GetAttribute(key string) (interface{}, bool)
}
