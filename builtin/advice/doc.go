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

// Package advice provides the builtin advice component library. Components
// register themselves here and are aggregated into the default component
// registry, so declarative advisor definitions can reference them by type:
//
//	{"type": "limiter", "configuration": {"max": 100}}
//
// Available components:
//   - debug: reports invocation entry and exit through Config.OnDebug
//   - metrics: collects invocation counters
//   - limiter: rejects invocations above a concurrency ceiling
//   - circuitBreaker: skips invocations while a method keeps failing
//   - cache: caches successful results by key template
//   - script: runs a JavaScript around function
//   - transaction: wraps the invocation in a database transaction
//   - audit: publishes invocation records to an MQTT topic
//
// Package advice 提供内置的advice组件库。组件在此自注册，并被聚合到默认组件
// 注册表中，因此声明式Advisor定义可以通过类型引用它们。
package advice

import (
	"github.com/rulego/aop/api/types"
)

// Registry the components of this package
var Registry = new(types.SafeComponentSlice)
