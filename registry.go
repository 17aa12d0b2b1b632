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

package aop

import (
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
)

// Registry 默认advice组件注册器
// 声明式Advisor定义通过它解析组件类型
var Registry = engine.Components

// RegisterAdapter 注册自定义advice适配器到默认适配器注册器
// 自定义advice类型通过适配器解析为拦截器
func RegisterAdapter(adapter types.AdviceAdapter) {
	engine.Registry.RegisterAdapter(adapter)
}
