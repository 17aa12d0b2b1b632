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

// ProxyDsl 代理定义
// 声明式地描述一个代理配置：基础信息加上有序的 Advisor 列表。
type ProxyDsl struct {
	//代理基础信息定义
	Proxy ProxyBaseInfo `json:"proxy"`
	//Advisor定义列表，按声明顺序注册
	Advisors []*AdvisorDsl `json:"advisors"`
}

// ProxyBaseInfo 代理基础信息定义
type ProxyBaseInfo struct {
	//代理配置ID
	ID string `json:"id"`
	//Name 代理的名称
	Name string `json:"name"`
	//表示这个代理是否处于调试模式。如果为真，会自动附加调试advice，调用时触发调试回调函数。
	DebugMode bool `json:"debugMode"`
	//ProxyTargetType 强制使用子类策略代理目标类型，即使声明了接口
	ProxyTargetType bool `json:"proxyTargetType"`
	//ExposeProxy 在调用上下文中暴露当前代理
	ExposeProxy bool `json:"exposeProxy"`
	//Frozen 构建完成后冻结配置，禁止结构性变更
	Frozen bool `json:"frozen"`
	//Configuration 代理配置信息
	Configuration Configuration `json:"configuration,omitempty"`
	//扩展字段
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}

// AdvisorDsl Advisor定义
type AdvisorDsl struct {
	//Advisor的唯一标识符，可以是任意字符串
	Id string `json:"id"`
	//advice的类型。内置种类：before、afterReturning、afterThrowing、around，
	//它们通过handler配置引用Config.Udf中注册的函数；
	//其它值与已注册的advice组件类型之一匹配，例如：script、cache、limiter。
	Type string `json:"type"`
	//Advisor的名称，可以是任意字符串
	Name string `json:"name"`
	//Order 执行顺序，值越小越先执行。相同Order保持声明顺序
	Order int `json:"order"`
	//Pointcut 切点表达式，决定advice应用到哪些类型和方法。
	//空字符串表示匹配所有方法。
	//例如：`type == 'UserService' && method startsWith 'Get'`
	Pointcut string `json:"pointcut"`
	//包含了advice的配置参数，具体内容取决于advice类型。
	//例如，script类型有一个`jsScript`字段定义环绕逻辑，
	//cache类型有`keyTemplate`和`ttl`字段。
	Configuration Configuration `json:"configuration,omitempty"`
}
