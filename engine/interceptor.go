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
	"errors"
	"fmt"

	"github.com/rulego/aop/api/types"
)

// kindInterceptor translates a built-in advice kind into its interceptor.
// Around advice already is an interceptor and contributes itself. Custom
// advice has no built-in translation and must go through an adapter.
//
// kindInterceptor 将内置 advice 类型转换为对应的拦截器。
// Around advice 本身就是拦截器，直接贡献自己。Custom advice 没有内置转换，
// 必须通过适配器处理。
func kindInterceptor(advice *types.Advice) (types.Interceptor, error) {
	if advice == nil {
		return nil, fmt.Errorf("%w: nil advice", types.ErrUnknownAdviceType)
	}
	switch advice.Kind() {
	case types.AdviceAround:
		return advice.Around(), nil
	case types.AdviceBefore:
		return beforeInterceptor(advice.Before()), nil
	case types.AdviceAfterReturning:
		return afterReturningInterceptor(advice.AfterReturning()), nil
	case types.AdviceAfterThrowing:
		return throwsInterceptor(advice.Throws()), nil
	default:
		return nil, fmt.Errorf("%w: kind=%s", types.ErrUnknownAdviceType, advice.Kind())
	}
}

// beforeInterceptor runs fn before the invocation proceeds.
// A non-nil error from fn aborts the invocation and the target is never called.
// beforeInterceptor 在调用继续前执行 fn。fn 返回非 nil 错误会中止调用，目标方法不会执行。
func beforeInterceptor(fn types.BeforeFunc) types.Interceptor {
	return types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		if fn != nil {
			if err := fn(inv); err != nil {
				return nil, err
			}
		}
		return inv.Proceed()
	})
}

// afterReturningInterceptor runs fn after a successful invocation.
// Errors bypass fn entirely. A non-nil error from fn replaces the result.
// afterReturningInterceptor 在调用成功返回后执行 fn。错误路径完全跳过 fn。
// fn 返回非 nil 错误会替换结果。
func afterReturningInterceptor(fn types.AfterReturningFunc) types.Interceptor {
	return types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		result, err := inv.Proceed()
		if err != nil {
			return result, err
		}
		if fn != nil {
			if err = fn(inv, result); err != nil {
				return nil, err
			}
		}
		return result, nil
	})
}

// throwsInterceptor dispatches invocation errors to the first matching handler.
// Matching walks the error chain from the outermost wrapper inward; at each
// level handlers are tried in declaration order, so a handler matching an
// outer error wins over one matching its cause.
//
// throwsInterceptor 将调用错误分发给第一个匹配的处理器。
// 匹配从最外层包装错误向内遍历错误链；每一层按声明顺序尝试处理器，
// 因此匹配外层错误的处理器优先于匹配其底层原因的处理器。
func throwsInterceptor(handlers []types.ThrowsHandler) types.Interceptor {
	return types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		result, err := inv.Proceed()
		if err == nil {
			return result, nil
		}
		return nil, resolveThrows(handlers, inv, err)
	})
}

// resolveThrows 返回处理后要传播的错误。处理器返回非 nil 则替换原错误，返回 nil 保留原错误。
func resolveThrows(handlers []types.ThrowsHandler, inv types.Invocation, err error) error {
	for level := err; level != nil; level = errors.Unwrap(level) {
		for _, handler := range handlers {
			if !matchesThrows(handler, level) {
				continue
			}
			if handler.Handle != nil {
				if replaced := handler.Handle(inv, err); replaced != nil {
					return replaced
				}
			}
			return err
		}
	}
	return err
}

// matchesThrows 判断处理器是否匹配错误链中的某一层。
// Target 只与该层比较，不再向内展开，整条链的展开由 resolveThrows 驱动。
func matchesThrows(handler types.ThrowsHandler, level error) bool {
	if handler.Matches != nil {
		return handler.Matches(level)
	}
	if handler.Target != nil {
		if level == handler.Target {
			return true
		}
		if x, ok := level.(interface{ Is(error) bool }); ok && x.Is(handler.Target) {
			return true
		}
		return false
	}
	return true
}
