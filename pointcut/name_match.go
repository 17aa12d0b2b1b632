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

package pointcut

import (
	"github.com/rulego/aop/api/types"
)

// NameMatchPointcut 方法名模式切点
// 方法名匹配任意一个模式即生效。模式支持 * 和 ? 通配符
type NameMatchPointcut struct {
	//TypePattern 类型名模式，空表示匹配所有类型
	TypePattern string
	//MethodPatterns 方法名模式列表
	MethodPatterns []string
}

var _ types.Pointcut = (*NameMatchPointcut)(nil)

// NameMatch 创建方法名模式切点
// Example: NameMatch("Get*", "Find*")
func NameMatch(methodPatterns ...string) *NameMatchPointcut {
	return &NameMatchPointcut{MethodPatterns: methodPatterns}
}

// ForType 限定类型名模式，返回自身以支持链式调用
func (p *NameMatchPointcut) ForType(typePattern string) *NameMatchPointcut {
	p.TypePattern = typePattern
	return p
}

func (p *NameMatchPointcut) MatchesType(serviceType *types.ServiceType) bool {
	if p.TypePattern == "" {
		return true
	}
	if serviceType == nil {
		return false
	}
	return matchesPattern(p.TypePattern, serviceType.Name)
}

func (p *NameMatchPointcut) MatchesMethod(serviceType *types.ServiceType, method *types.Method) bool {
	if method == nil {
		return false
	}
	for _, pattern := range p.MethodPatterns {
		if matchesPattern(pattern, method.Name) {
			return true
		}
	}
	return false
}
