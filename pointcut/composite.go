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

// unionPointcut 并集切点
type unionPointcut struct {
	pointcuts []types.Pointcut
}

var _ types.Pointcut = (*unionPointcut)(nil)

// Union 创建并集切点，任意一个成员匹配即匹配
func Union(pointcuts ...types.Pointcut) types.Pointcut {
	return &unionPointcut{pointcuts: pointcuts}
}

func (p *unionPointcut) MatchesType(serviceType *types.ServiceType) bool {
	for _, item := range p.pointcuts {
		if item.MatchesType(serviceType) {
			return true
		}
	}
	return false
}

func (p *unionPointcut) MatchesMethod(serviceType *types.ServiceType, method *types.Method) bool {
	// 并集级的类型过滤只保证有成员通过，方法级需要重新确认各成员自己的类型过滤
	for _, item := range p.pointcuts {
		if item.MatchesType(serviceType) && item.MatchesMethod(serviceType, method) {
			return true
		}
	}
	return false
}

// intersectionPointcut 交集切点
type intersectionPointcut struct {
	pointcuts []types.Pointcut
}

var _ types.Pointcut = (*intersectionPointcut)(nil)

// Intersection 创建交集切点，所有成员都匹配才匹配
func Intersection(pointcuts ...types.Pointcut) types.Pointcut {
	return &intersectionPointcut{pointcuts: pointcuts}
}

func (p *intersectionPointcut) MatchesType(serviceType *types.ServiceType) bool {
	for _, item := range p.pointcuts {
		if !item.MatchesType(serviceType) {
			return false
		}
	}
	return true
}

func (p *intersectionPointcut) MatchesMethod(serviceType *types.ServiceType, method *types.Method) bool {
	for _, item := range p.pointcuts {
		if !item.MatchesMethod(serviceType, method) {
			return false
		}
	}
	return true
}

// notPointcut 取反切点
type notPointcut struct {
	pointcut types.Pointcut
}

var _ types.Pointcut = (*notPointcut)(nil)

// Not 创建取反切点
// 类型级不过滤，取反在方法级完成，被反转的切点的类型过滤在方法级重新确认
func Not(pointcut types.Pointcut) types.Pointcut {
	return &notPointcut{pointcut: pointcut}
}

func (p *notPointcut) MatchesType(serviceType *types.ServiceType) bool {
	return true
}

func (p *notPointcut) MatchesMethod(serviceType *types.ServiceType, method *types.Method) bool {
	return !(p.pointcut.MatchesType(serviceType) && p.pointcut.MatchesMethod(serviceType, method))
}
