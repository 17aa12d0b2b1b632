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

// Pointcut decides where an advisor applies. Matching is two-staged: the
// chain factory consults MatchesType first and never asks MatchesMethod for
// a type the filter rejected, so method matching can assume the type matched.
//
// Pointcut 决定 Advisor 的生效位置。匹配分两级：链工厂先询问 MatchesType，
// 对被类型过滤器拒绝的类型绝不会再调用 MatchesMethod，
// 因此方法匹配可以假定类型已经匹配。
type Pointcut interface {
	// MatchesType is the coarse, type-level filter.
	MatchesType(serviceType *ServiceType) bool
	// MatchesMethod is the fine, method-level matcher. Only called when
	// MatchesType returned true.
	MatchesMethod(serviceType *ServiceType, method *Method) bool
}

// truePointcut matches everything.
type truePointcut struct{}

func (truePointcut) MatchesType(*ServiceType) bool           { return true }
func (truePointcut) MatchesMethod(*ServiceType, *Method) bool { return true }

// True returns the canonical pointcut that matches every type and method.
func True() Pointcut {
	return truePointcut{}
}
