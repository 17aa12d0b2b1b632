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
	"fmt"
	"sync"

	"github.com/rulego/aop/api/types"
)

// Registry is the default adapter registry, shared by every configuration
// that does not provide its own. Builtin advice kinds resolve without any
// registration; RegisterAdapter extends resolution to custom advice.
//
// Registry 是默认的适配器注册表，由所有未自带注册表的配置共享。
// 内置 advice 类型无需注册即可解析；RegisterAdapter 将解析扩展到自定义 advice。
var Registry = NewAdapterRegistry()

// Ensuring DefaultAdapterRegistry implements types.AdapterRegistry interface.
var _ types.AdapterRegistry = (*DefaultAdapterRegistry)(nil)

// DefaultAdapterRegistry resolves advice objects into advisors and advisors
// into interceptor chains. Resolution is deterministic: builtin kinds always
// resolve by themselves, custom advice is offered to the registered adapters
// in registration order and the first supporter wins. Strict mode turns a
// custom advice claimed by more than one adapter into ErrAmbiguousAdvice
// instead of silently taking the first.
//
// DefaultAdapterRegistry 将 advice 对象解析为 Advisor，将 Advisor 解析为拦截器链。
// 解析是确定性的：内置类型总是自行解析，自定义 advice 按注册顺序提供给
// 已注册的适配器，第一个支持者胜出。严格模式下，被多个适配器认领的
// 自定义 advice 返回 ErrAmbiguousAdvice，而不是静默采用第一个。
type DefaultAdapterRegistry struct {
	// adapters is the list of custom advice adapters in registration order.
	adapters []types.AdviceAdapter
	// strict rejects custom advice claimed by more than one adapter.
	strict bool
	sync.RWMutex
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *DefaultAdapterRegistry {
	return &DefaultAdapterRegistry{}
}

// SetStrict toggles ambiguity detection for every user of this registry.
// SetStrict 为该注册表的所有使用方开关歧义检测。
func (r *DefaultAdapterRegistry) SetStrict(strict bool) {
	r.Lock()
	defer r.Unlock()
	r.strict = strict
}

// Strict returns a strict view of this registry that shares its registered
// adapters. Configurations with StrictAdapterMatch resolve through the view
// without affecting other users of the registry.
//
// Strict 返回该注册表的严格视图，共享已注册的适配器。
// 开启 StrictAdapterMatch 的配置通过该视图解析，不影响注册表的其他使用方。
func (r *DefaultAdapterRegistry) Strict() types.AdapterRegistry {
	return &strictRegistry{inner: r}
}

// RegisterAdapter appends a custom advice adapter. Registration is
// append-only, so builtin kinds keep first right of refusal and earlier
// adapters keep priority over later ones.
//
// RegisterAdapter 追加一个自定义 advice 适配器。注册只增不减，
// 内置类型保留优先解析权，先注册的适配器优先于后注册的。
func (r *DefaultAdapterRegistry) RegisterAdapter(adapter types.AdviceAdapter) {
	if adapter == nil {
		return
	}
	r.Lock()
	defer r.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Wrap normalizes an advice object into an advisor. Advisors pass through
// unchanged, builtin advice and raw interceptors are wrapped with a
// match-all pointcut at order 0, custom advice must be supported by at
// least one registered adapter.
//
// Wrap 将 advice 对象规范化为 Advisor。Advisor 原样通过，
// 内置 advice 和原始拦截器包装为 order 0 的全匹配切点 Advisor，
// 自定义 advice 必须有至少一个已注册适配器支持。
func (r *DefaultAdapterRegistry) Wrap(adviceObject interface{}) (types.Advisor, error) {
	return r.wrap(adviceObject, r.isStrict())
}

// GetInterceptors resolves an advisor into its interceptors. Builtin kinds
// contribute their kind interceptor first, then every supporting adapter
// appends in registration order.
//
// GetInterceptors 将 Advisor 解析为拦截器列表。内置类型先贡献其类型拦截器，
// 然后每个支持的适配器按注册顺序追加。
func (r *DefaultAdapterRegistry) GetInterceptors(advisor types.Advisor) ([]types.Interceptor, error) {
	return r.getInterceptors(advisor, r.isStrict())
}

func (r *DefaultAdapterRegistry) isStrict() bool {
	r.RLock()
	defer r.RUnlock()
	return r.strict
}

// snapshotAdapters 返回适配器列表的当前引用。列表只增不减，旧底层数组不会再被修改。
func (r *DefaultAdapterRegistry) snapshotAdapters() []types.AdviceAdapter {
	r.RLock()
	defer r.RUnlock()
	return r.adapters
}

func (r *DefaultAdapterRegistry) wrap(adviceObject interface{}, strict bool) (types.Advisor, error) {
	switch advice := adviceObject.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil advice", types.ErrUnknownAdviceType)
	case types.Advisor:
		return advice, nil
	case *types.Advice:
		if advice.Kind() == types.AdviceCustom {
			if err := r.checkSupported(advice, strict); err != nil {
				return nil, err
			}
		}
		return types.NewAdvisor(0, nil, advice), nil
	case types.Interceptor:
		return types.NewAdvisor(0, nil, types.NewAroundAdvice(advice)), nil
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrUnknownAdviceType, adviceObject)
	}
}

// checkSupported 校验自定义 advice 的适配器支持情况。
func (r *DefaultAdapterRegistry) checkSupported(advice *types.Advice, strict bool) error {
	supported := 0
	for _, adapter := range r.snapshotAdapters() {
		if adapter.SupportsAdvice(advice) {
			supported++
			if !strict {
				return nil
			}
			if supported > 1 {
				return fmt.Errorf("%w: custom advice claimed by multiple adapters", types.ErrAmbiguousAdvice)
			}
		}
	}
	if supported == 0 {
		return fmt.Errorf("%w: no adapter supports custom advice", types.ErrUnknownAdviceType)
	}
	return nil
}

func (r *DefaultAdapterRegistry) getInterceptors(advisor types.Advisor, strict bool) ([]types.Interceptor, error) {
	if advisor == nil {
		return nil, fmt.Errorf("%w: nil advisor", types.ErrUnknownAdviceType)
	}
	advice := advisor.Advice()
	if advice == nil {
		return nil, fmt.Errorf("%w: advisor carries no advice", types.ErrUnknownAdviceType)
	}
	var interceptors []types.Interceptor
	if advice.Kind() != types.AdviceCustom {
		interceptor, err := kindInterceptor(advice)
		if err != nil {
			return nil, err
		}
		interceptors = append(interceptors, interceptor)
	}
	customCount := 0
	for _, adapter := range r.snapshotAdapters() {
		if !adapter.SupportsAdvice(advice) {
			continue
		}
		customCount++
		if strict && customCount > 1 {
			return nil, fmt.Errorf("%w: custom advice claimed by multiple adapters", types.ErrAmbiguousAdvice)
		}
		interceptor, err := adapter.GetInterceptor(advisor)
		if err != nil {
			return nil, err
		}
		interceptors = append(interceptors, interceptor)
	}
	if len(interceptors) == 0 {
		return nil, fmt.Errorf("%w: kind=%s", types.ErrUnknownAdviceType, advice.Kind())
	}
	return interceptors, nil
}

// strictRegistry 是开启歧义检测的注册表视图，与底层注册表共享适配器。
type strictRegistry struct {
	inner *DefaultAdapterRegistry
}

func (s *strictRegistry) Wrap(adviceObject interface{}) (types.Advisor, error) {
	return s.inner.wrap(adviceObject, true)
}

func (s *strictRegistry) GetInterceptors(advisor types.Advisor) ([]types.Interceptor, error) {
	return s.inner.getInterceptors(advisor, true)
}

func (s *strictRegistry) RegisterAdapter(adapter types.AdviceAdapter) {
	s.inner.RegisterAdapter(adapter)
}
