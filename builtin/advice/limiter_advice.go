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

package advice

import (
	"sync/atomic"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&ConcurrencyLimiter{})
}

// ConcurrencyLimiterConfiguration 组件配置
type ConcurrencyLimiterConfiguration struct {
	// Max 最大并发调用数量
	Max int64
}

// ConcurrencyLimiter restricts the number of invocations running through the
// proxy at the same time. The check-and-increment is a compare-and-swap loop,
// so the ceiling holds under concurrent callers; invocations above the
// ceiling fail fast with types.ErrConcurrencyLimitReached instead of queuing.
//
// ConcurrencyLimiter 限制同时流经代理的调用数量。检查和递增使用比较并交换循环，
// 因此上限在并发调用方下依然成立；超过上限的调用以
// types.ErrConcurrencyLimitReached 快速失败，而不是排队等待。
type ConcurrencyLimiter struct {
	//组件配置
	Config ConcurrencyLimiterConfiguration
	//当前并发执行数量
	currentCount int64
}

// Ensuring ConcurrencyLimiter implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*ConcurrencyLimiter)(nil)

// NewConcurrencyLimiter creates a limiter with the given ceiling.
func NewConcurrencyLimiter(max int) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{Config: ConcurrencyLimiterConfiguration{Max: int64(max)}}
}

// Type 组件类型
func (x *ConcurrencyLimiter) Type() string {
	return "limiter"
}

func (x *ConcurrencyLimiter) New() types.AdviceComponent {
	return &ConcurrencyLimiter{Config: ConcurrencyLimiterConfiguration{Max: 100}}
}

// Init 初始化组件
func (x *ConcurrencyLimiter) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.Max <= 0 {
		x.Config.Max = 100
	}
	return nil
}

func (x *ConcurrencyLimiter) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		// 使用原子操作确保检查和增加操作的原子性
		for {
			current := atomic.LoadInt64(&x.currentCount)
			if current >= x.Config.Max {
				return nil, types.ErrConcurrencyLimitReached
			}
			// 尝试原子地增加计数器，如果成功则退出循环
			if atomic.CompareAndSwapInt64(&x.currentCount, current, current+1) {
				break
			}
			// 如果CAS失败，说明有其他goroutine修改了计数器，重试
		}
		defer atomic.AddInt64(&x.currentCount, -1)
		return inv.Proceed()
	}))
}

// Destroy 销毁组件
func (x *ConcurrencyLimiter) Destroy() {
}

// Current returns the number of invocations currently inside the chain.
func (x *ConcurrencyLimiter) Current() int64 {
	return atomic.LoadInt64(&x.currentCount)
}
