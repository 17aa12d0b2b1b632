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
	"github.com/rulego/aop/api/types"
)

// ChainFactory builds the interceptor chain of one method from an advisor list.
// ChainFactory 从 Advisor 列表构建单个方法的拦截器链。
type ChainFactory interface {
	// Chain returns the interceptors that apply to the given method, ordered
	// by advisor order. preFiltered indicates the advisor list was already
	// narrowed to this target type, so type matching is skipped.
	Chain(advisors types.AdvisorList, preFiltered bool, serviceType *types.ServiceType,
		method *types.Method, registry types.AdapterRegistry) ([]types.Interceptor, error)
}

// DefaultChainFactory is the standard chain factory.
// Advisors are sorted by order, pointcut advisors are filtered against the
// target type and method, and each surviving advisor contributes its
// interceptors through the adapter registry. Non-pointcut advisors always
// apply. The returned chain is a fresh slice owned by the caller and is
// never mutated by the factory.
//
// DefaultChainFactory 是标准的链工厂。
// Advisor 按 order 排序，切点 Advisor 会针对目标类型和方法过滤，
// 通过筛选的 Advisor 经适配器注册表贡献其拦截器。无切点的 Advisor 总是生效。
// 返回的链是调用方独占的新切片，工厂不会再修改它。
type DefaultChainFactory struct {
}

// Ensuring DefaultChainFactory implements ChainFactory interface.
var _ ChainFactory = (*DefaultChainFactory)(nil)

func (f *DefaultChainFactory) Chain(advisors types.AdvisorList, preFiltered bool, serviceType *types.ServiceType,
	method *types.Method, registry types.AdapterRegistry) ([]types.Interceptor, error) {
	if registry == nil {
		registry = Registry
	}
	sorted := advisors.Sort()
	chain := make([]types.Interceptor, 0, len(sorted))
	for _, advisor := range sorted {
		if pointcutAdvisor, ok := advisor.(types.PointcutAdvisor); ok {
			pointcut := pointcutAdvisor.Pointcut()
			if pointcut != nil {
				//类型不匹配时跳过该 Advisor，方法匹配器不再参与
				if !preFiltered && !pointcut.MatchesType(serviceType) {
					continue
				}
				if !pointcut.MatchesMethod(serviceType, method) {
					continue
				}
			}
		}
		interceptors, err := registry.GetInterceptors(advisor)
		if err != nil {
			return nil, err
		}
		for _, interceptor := range interceptors {
			//已完成的子链内联展开，避免嵌套调用
			if sub, ok := interceptor.(*ChainInterceptor); ok {
				chain = append(chain, sub.Interceptors()...)
			} else {
				chain = append(chain, interceptor)
			}
		}
	}
	return chain, nil
}

// ChainInterceptor adapts a completed interceptor chain into a single
// interceptor, so an already assembled chain can participate in another
// advisor list. The chain factory splices its members inline rather than
// nesting, which keeps proxy composition flat.
//
// ChainInterceptor 将一条已完成的拦截器链适配为单个拦截器，
// 使已组装的链可以参与另一个 Advisor 列表。链工厂会将其成员内联展开
// 而不是嵌套，保证代理组合后的链是扁平的。
type ChainInterceptor struct {
	interceptors []types.Interceptor
}

func NewChainInterceptor(interceptors ...types.Interceptor) *ChainInterceptor {
	return &ChainInterceptor{interceptors: interceptors}
}

// Interceptors 返回链成员，供工厂内联展开。
func (c *ChainInterceptor) Interceptors() []types.Interceptor {
	return c.interceptors
}

// Invoke runs the sub-chain in front of the remainder of the outer
// invocation. Only reached when the interceptor is used standalone,
// outside the factory's inline splicing.
//
// Invoke 在外层调用的剩余部分之前运行子链。
// 仅在该拦截器脱离工厂内联展开、独立使用时才会执行。
func (c *ChainInterceptor) Invoke(inv types.Invocation) (interface{}, error) {
	nested := &nestedInvocation{Invocation: inv, chain: c.interceptors, cursor: -1}
	return nested.Proceed()
}

// nestedInvocation 先消费子链，再恢复外层调用的 Proceed。
type nestedInvocation struct {
	types.Invocation
	chain  []types.Interceptor
	cursor int
}

func (inv *nestedInvocation) Proceed() (interface{}, error) {
	inv.cursor++
	if inv.cursor < len(inv.chain) {
		return inv.chain[inv.cursor].Invoke(inv)
	}
	return inv.Invocation.Proceed()
}
