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

import "sort"

// Advisor binds one advice to an ordering position. Lower Order values run
// closer to the caller; advisors with equal Order keep their registration
// order.
//
// Advisor 将一个 Advice 绑定到一个排序位置。Order 值越小越靠近调用方执行；
// Order 相同的 Advisor 保持注册顺序。
type Advisor interface {
	// Order returns the execution order of this advisor. Lower values execute earlier.
	Order() int
	// Advice returns the advice this advisor carries. Never nil.
	Advice() *Advice
}

// PointcutAdvisor is an advisor whose applicability is scoped by a pointcut.
// Advisors that are not PointcutAdvisors apply to every method.
type PointcutAdvisor interface {
	Advisor
	// Pointcut returns the pointcut scoping this advisor. Never nil.
	Pointcut() Pointcut
}

var _ PointcutAdvisor = (*DefaultPointcutAdvisor)(nil)

// DefaultPointcutAdvisor is the standard advisor implementation: an advice,
// a pointcut and an order, nothing else.
type DefaultPointcutAdvisor struct {
	advice   *Advice
	pointcut Pointcut
	order    int
}

// NewAdvisor creates an advisor. A nil pointcut means match-everything.
func NewAdvisor(order int, pointcut Pointcut, advice *Advice) *DefaultPointcutAdvisor {
	if pointcut == nil {
		pointcut = True()
	}
	return &DefaultPointcutAdvisor{advice: advice, pointcut: pointcut, order: order}
}

func (a *DefaultPointcutAdvisor) Order() int {
	return a.order
}

func (a *DefaultPointcutAdvisor) Advice() *Advice {
	return a.advice
}

func (a *DefaultPointcutAdvisor) Pointcut() Pointcut {
	return a.pointcut
}

// AdvisorList is an ordered collection of advisors.
type AdvisorList []Advisor

// Sort returns a copy sorted by Order ascending. The sort is stable, so
// advisors with equal Order keep their relative registration order.
func (list AdvisorList) Sort() AdvisorList {
	sorted := make(AdvisorList, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return sorted
}

// Copy returns a shallow copy of the list.
func (list AdvisorList) Copy() AdvisorList {
	copied := make(AdvisorList, len(list))
	copy(copied, list)
	return copied
}
