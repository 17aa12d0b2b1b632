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

// AdviceAdapter interprets custom advice payloads. Adapters extend the
// closed set of builtin advice kinds without touching the core: the registry
// consults them, in registration order, only for AdviceCustom values.
//
// AdviceAdapter 解释自定义 Advice 负载。适配器在不触碰核心的前提下扩展
// 内置 Advice 种类的封闭集合：注册中心仅对 AdviceCustom 值按注册顺序咨询它们。
type AdviceAdapter interface {
	// SupportsAdvice reports whether this adapter understands the advice.
	SupportsAdvice(advice *Advice) bool
	// GetInterceptor builds the interceptor realizing the advisor's advice.
	// Only called after SupportsAdvice returned true.
	GetInterceptor(advisor Advisor) (Interceptor, error)
}

// AdapterRegistry resolves arbitrary advice objects into advisors and
// interceptor lists. Builtin kinds always resolve; custom kinds resolve
// through registered adapters. Registration is append-only, so resolution is
// deterministic for a given registration history.
//
// AdapterRegistry 将任意 Advice 对象解析为 Advisor 和拦截器列表。
// 内置种类总能解析；自定义种类通过注册的适配器解析。
// 注册只增不减，因此给定注册历史时解析结果是确定的。
type AdapterRegistry interface {
	// Wrap normalizes an advice object into an advisor. Accepts an Advisor
	// (returned unchanged), an *Advice, or a raw Interceptor. Everything else
	// fails with ErrUnknownAdviceType.
	Wrap(adviceObject interface{}) (Advisor, error)
	// GetInterceptors resolves an advisor's advice into the interceptors
	// realizing it, builtin resolution first, then every supporting adapter
	// in registration order. An empty result is ErrUnknownAdviceType.
	GetInterceptors(advisor Advisor) ([]Interceptor, error)
	// RegisterAdapter appends a custom adapter. Builtin kinds keep first
	// right of refusal regardless of registered adapters.
	RegisterAdapter(adapter AdviceAdapter)
}
