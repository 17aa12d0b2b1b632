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
	"errors"
	"fmt"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/js"
	"github.com/rulego/aop/utils/maps"
)

// 注册组件
func init() {
	Registry.Add(&Script{})
}

const (
	// AroundFuncName JS引擎中执行的函数名称
	AroundFuncName = "Around"
	// AroundFuncTemplate 包装用户脚本的完整函数模板
	AroundFuncTemplate = "function Around(args) { %s }"
	// ScriptDefaultScript 默认脚本，直接放行调用
	ScriptDefaultScript = "return $ctx.Proceed();"
)

// ScriptConfiguration 组件配置
type ScriptConfiguration struct {
	// JsScript 用户自定义的环绕逻辑脚本内容
	// 脚本会被包装成完整函数：function Around(args) { ${JsScript} }
	// 通过$ctx访问当前调用，例如：
	//   $ctx.Proceed()        继续执行链，返回结果，出错时抛出异常
	//   $ctx.Arguments()      当前参数列表
	//   $ctx.Method().Name    方法名
	JsScript string
}

// Script runs a JavaScript around function for each invocation. The script
// decides whether and when to call $ctx.Proceed(), can rewrite arguments and
// can replace the result. It executes on a pooled goja runtime with the
// engine's Udf functions preloaded and Config.ScriptMaxExecutionTime
// enforced via vm interrupts.
//
// The component's advice is a custom kind; ScriptAdapter, registered in the
// default adapter registry, resolves it back into the interceptor.
//
// Script 为每次调用运行一个JavaScript环绕函数。脚本决定是否以及何时调用
// $ctx.Proceed()，可以改写参数，也可以替换结果。它在池化的goja运行时上执行，
// 预加载引擎的Udf函数，并通过vm中断强制执行 Config.ScriptMaxExecutionTime。
//
// 该组件的advice是自定义种类；注册在默认适配器注册表中的 ScriptAdapter
// 将其解析回拦截器。
type Script struct {
	//组件配置
	Config ScriptConfiguration
	//js脚本引擎
	jsEngine types.JsEngine
}

var (
	// Ensuring Script implements types.AdviceComponent interface.
	_ types.AdviceComponent = (*Script)(nil)
	// Ensuring Script implements types.Interceptor interface.
	_ types.Interceptor = (*Script)(nil)
)

// Type 组件类型
func (x *Script) Type() string {
	return "script"
}

func (x *Script) New() types.AdviceComponent {
	return &Script{Config: ScriptConfiguration{
		JsScript: ScriptDefaultScript,
	}}
}

// Init 初始化组件
func (x *Script) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.JsScript == "" {
		return errors.New("jsScript can not empty")
	}
	jsScript := fmt.Sprintf(AroundFuncTemplate, x.Config.JsScript)
	x.jsEngine, err = js.NewGojaJsEngine(config, jsScript, nil)
	return err
}

// Advice returns a custom advice carrying this component; the registered
// ScriptAdapter resolves it into the script interceptor.
func (x *Script) Advice() *types.Advice {
	return types.NewCustomAdvice(x)
}

// Invoke 执行环绕脚本
func (x *Script) Invoke(inv types.Invocation) (interface{}, error) {
	return x.jsEngine.Execute(inv, AroundFuncName, inv.Arguments())
}

// Destroy 销毁组件
func (x *Script) Destroy() {
	if x.jsEngine != nil {
		x.jsEngine.Stop()
	}
}

// ScriptAdapter resolves script custom advice back into its interceptor.
// The engine registers one instance in the default adapter registry.
//
// ScriptAdapter 将脚本自定义advice解析回其拦截器。
// 引擎在默认适配器注册表中注册一个实例。
type ScriptAdapter struct {
}

// Ensuring ScriptAdapter implements types.AdviceAdapter interface.
var _ types.AdviceAdapter = (*ScriptAdapter)(nil)

func (a *ScriptAdapter) SupportsAdvice(advice *types.Advice) bool {
	if advice == nil || advice.Kind() != types.AdviceCustom {
		return false
	}
	_, ok := advice.Custom().(*Script)
	return ok
}

func (a *ScriptAdapter) GetInterceptor(advisor types.Advisor) (types.Interceptor, error) {
	script, ok := advisor.Advice().Custom().(*Script)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not a script advice", types.ErrUnknownAdviceType)
	}
	return script, nil
}
