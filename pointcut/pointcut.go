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

// Package pointcut provides reusable pointcut implementations that decide
// where advisors apply.
//
// Key components:
// - NameMatchPointcut: matches method names against wildcard patterns.
// - ExpressionPointcut: evaluates an expr expression over call metadata.
// - Union/Intersection/Not: compose pointcuts into new ones.
//
// All implementations honor the two-stage contract of types.Pointcut:
// MatchesType runs first as a coarse filter, MatchesMethod is only consulted
// for types that passed it.
//
// Package pointcut 提供可复用的切点实现，决定 Advisor 的生效位置。
// 支持方法名通配符匹配、expr表达式匹配，以及并集/交集/取反组合。
package pointcut

import (
	"path"
)

// matchesPattern 通配符匹配，支持 * 和 ? ，例如：Get*、*ById
func matchesPattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}
