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
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/api/types/metrics"
)

// 注册组件
func init() {
	Registry.Add(&Metrics{})
}

// Metrics counts invocations flowing through the proxy: current, total,
// success and failure. Counters are atomic; GetMetrics returns the live
// collector so callers can read or reset it at any time.
//
// Metrics 统计流经代理的调用：当前执行中、总数、成功和失败。
// 计数器是原子的；GetMetrics 返回实时收集器，调用方可随时读取或重置。
type Metrics struct {
	metrics *metrics.InvocationMetrics
}

// Ensuring Metrics implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*Metrics)(nil)

// NewMetrics creates a metrics component with an external collector. A nil
// collector gets a fresh one.
func NewMetrics(m *metrics.InvocationMetrics) *Metrics {
	if m == nil {
		m = metrics.NewInvocationMetrics()
	}
	return &Metrics{metrics: m}
}

// Type 组件类型
func (x *Metrics) Type() string {
	return "metrics"
}

func (x *Metrics) New() types.AdviceComponent {
	if x.metrics == nil {
		x.metrics = metrics.NewInvocationMetrics()
	}
	x.metrics.Reset()
	return &Metrics{metrics: x.metrics}
}

// Init 初始化组件
func (x *Metrics) Init(config types.Config, configuration types.Configuration) error {
	if x.metrics == nil {
		x.metrics = metrics.NewInvocationMetrics()
	}
	return nil
}

func (x *Metrics) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		x.metrics.IncrementCurrent()
		x.metrics.IncrementTotal()
		defer x.metrics.DecrementCurrent()
		result, err := inv.Proceed()
		if err != nil {
			x.metrics.IncrementFailed()
		} else {
			x.metrics.IncrementSuccess()
		}
		return result, err
	}))
}

// Destroy 销毁组件
func (x *Metrics) Destroy() {
}

// GetMetrics 返回当前的指标
func (x *Metrics) GetMetrics() *metrics.InvocationMetrics {
	return x.metrics
}
