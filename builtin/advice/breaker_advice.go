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
	"sync"
	"sync/atomic"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&CircuitBreaker{})
}

// CircuitBreakerConfiguration 组件配置
type CircuitBreakerConfiguration struct {
	// ErrorCountLimit 触发熔断的连续错误数，默认3
	ErrorCountLimit int64
	// LimitDuration 熔断持续时间，单位秒，默认10
	LimitDuration int
}

// CircuitBreaker skips invocations of a method while it keeps failing.
// Errors are tracked per method; once the consecutive error count reaches
// ErrorCountLimit, further invocations of that method fail immediately with
// types.ErrCircuitOpen until LimitDuration has passed since the last error.
// A successful invocation or an expired window resets the method's record.
//
// CircuitBreaker 在某个方法持续失败期间跳过对它的调用。错误按方法跟踪；
// 连续错误数达到 ErrorCountLimit 后，对该方法的后续调用立即以
// types.ErrCircuitOpen 失败，直到距最后一次错误超过 LimitDuration。
// 一次成功调用或窗口过期都会重置该方法的记录。
type CircuitBreaker struct {
	//组件配置
	Config CircuitBreakerConfiguration
	// methodErrorCache 每个方法的错误记录
	// 键：方法名，值：*methodError
	methodErrorCache sync.Map
	//lock 为缓存操作提供同步
	lock sync.Mutex
}

// Ensuring CircuitBreaker implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*CircuitBreaker)(nil)

// Type 组件类型
func (x *CircuitBreaker) Type() string {
	return "circuitBreaker"
}

func (x *CircuitBreaker) New() types.AdviceComponent {
	return &CircuitBreaker{Config: CircuitBreakerConfiguration{
		ErrorCountLimit: 3,
		LimitDuration:   10,
	}}
}

// Init 初始化组件
func (x *CircuitBreaker) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.ErrorCountLimit <= 0 {
		x.Config.ErrorCountLimit = 3
	}
	if x.Config.LimitDuration <= 0 {
		x.Config.LimitDuration = 10
	}
	return nil
}

func (x *CircuitBreaker) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		methodName := inv.Method().Name
		if record, ok := x.getMethodError(methodName); ok &&
			atomic.LoadInt64(&record.errorCount) >= x.Config.ErrorCountLimit {
			if atomic.LoadInt64(&record.lastErrorTime)+x.limitDuration().Milliseconds() < time.Now().UnixMilli() {
				//超过时间，清除错误记录
				x.methodErrorCache.Delete(methodName)
			} else {
				//出错次数达到阈值，执行降级
				return nil, types.ErrCircuitOpen
			}
		}
		result, err := inv.Proceed()
		if err != nil {
			x.recordError(methodName)
		} else {
			x.methodErrorCache.Delete(methodName)
		}
		return result, err
	}))
}

// Destroy 销毁组件
func (x *CircuitBreaker) Destroy() {
	x.methodErrorCache.Range(func(key, value interface{}) bool {
		x.methodErrorCache.Delete(key)
		return true
	})
}

func (x *CircuitBreaker) limitDuration() time.Duration {
	return time.Duration(x.Config.LimitDuration) * time.Second
}

// recordError 记录错误次数
func (x *CircuitBreaker) recordError(methodName string) {
	var ok bool
	var record *methodError
	if record, ok = x.getMethodError(methodName); !ok {
		x.lock.Lock()
		if record, ok = x.getMethodError(methodName); !ok {
			record = &methodError{
				errorCount:    1,
				lastErrorTime: time.Now().UnixMilli(),
			}
			x.methodErrorCache.Store(methodName, record)
		} else {
			atomic.AddInt64(&record.errorCount, 1)
			atomic.StoreInt64(&record.lastErrorTime, time.Now().UnixMilli())
		}
		x.lock.Unlock()
	} else {
		atomic.AddInt64(&record.errorCount, 1)
		atomic.StoreInt64(&record.lastErrorTime, time.Now().UnixMilli())
	}
}

func (x *CircuitBreaker) getMethodError(methodName string) (*methodError, bool) {
	if cached, ok := x.methodErrorCache.Load(methodName); ok {
		if record, ok := cached.(*methodError); ok {
			return record, true
		}
	}
	return nil, false
}

// methodError 方法的错误跟踪信息
type methodError struct {
	// errorCount 连续错误数量
	errorCount int64
	// lastErrorTime 最近一次错误的时间戳（毫秒）
	lastErrorTime int64
}
