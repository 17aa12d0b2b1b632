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
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&Debug{})
}

// KeyProxyId is the configuration key carrying the owning proxy id.
const KeyProxyId = "proxyId"

// DebugConfiguration 组件配置
type DebugConfiguration struct {
	// ProxyId 上报给调试回调的代理配置ID
	ProxyId string
}

// Debug reports invocation entry and exit through the OnDebug callback
// configured in types.Config. It records the In flow before the rest of the
// chain runs and the Out flow with result and error once the invocation
// returns. Reporting is asynchronous, so debugging does not block the chain.
//
// Debug 通过 types.Config 中配置的 OnDebug 回调上报调用的进入和离开。
// 在链的其余部分运行之前记录 In 流，调用返回后记录带结果和错误的 Out 流。
// 上报是异步的，因此调试不会阻塞链的执行。
//
// The proxy factory attaches this component automatically when a proxy
// definition enables debugMode.
// 当代理定义开启 debugMode 时，代理工厂会自动附加此组件。
type Debug struct {
	//组件配置
	Config DebugConfiguration
	config types.Config
}

// Ensuring Debug implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*Debug)(nil)

// Type 组件类型
func (x *Debug) Type() string {
	return "debug"
}

func (x *Debug) New() types.AdviceComponent {
	return &Debug{}
}

// Init 初始化组件
func (x *Debug) Init(config types.Config, configuration types.Configuration) error {
	x.config = config
	return maps.Map2Struct(configuration, &x.Config)
}

// Advice returns an around advice reporting both flows.
func (x *Debug) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		//异步记录In日志
		x.onDebug(types.In, inv, nil, nil)
		result, err := inv.Proceed()
		//异步记录Out日志
		x.onDebug(types.Out, inv, result, err)
		return result, err
	}))
}

// Destroy 销毁组件
func (x *Debug) Destroy() {
}

// onDebug 异步上报调试信息。参数列表先拷贝，避免与后续对参数的修改竞争。
func (x *Debug) onDebug(flowType string, inv types.Invocation, result interface{}, err error) {
	onDebug := x.config.OnDebug
	if onDebug == nil {
		onDebug = types.OnDebug
	}
	if onDebug == nil {
		return
	}
	methodName := inv.Method().Name
	args := append([]interface{}{}, inv.Arguments()...)
	x.submitTask(func() {
		onDebug(x.Config.ProxyId, flowType, methodName, args, result, err)
	})
}

func (x *Debug) submitTask(task func()) {
	if x.config.Pool != nil {
		if submitErr := x.config.Pool.Submit(task); submitErr != nil {
			x.config.Logger.Printf("debug advice submit task error:%s", submitErr)
		}
	} else {
		go task()
	}
}
