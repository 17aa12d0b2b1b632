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

import "errors"

const (
	Global = "global"
	// Vars proxy dsl configuration vars key
	Vars = "vars"
	// Secrets proxy dsl configuration secrets key
	Secrets = "secrets"
)

const (
	// AdviceConfigurationKeyHandler names a Config.Udf entry referenced as
	// advice payload by declarative advisor definitions.
	AdviceConfigurationKeyHandler = "handler"
	// NamespaceSeparator defines the separator for cache namespace prefixes
	NamespaceSeparator = ":"
)

var (
	// ErrUnknownAdviceType is returned when neither a builtin advice kind nor
	// a registered adapter can interpret an advice object.
	ErrUnknownAdviceType = errors.New("unknown advice type")
	// ErrAmbiguousAdvice is returned in strict mode when more than one custom
	// adapter claims the same advice.
	ErrAmbiguousAdvice = errors.New("ambiguous advice resolution")
	// ErrProxyingUnsupported is returned by GetProxy when no proxying
	// strategy can serve the current configuration.
	ErrProxyingUnsupported = errors.New("proxying unsupported for configuration")
	// ErrConfigFrozen is returned when mutating a frozen proxy configuration.
	ErrConfigFrozen = errors.New("proxy configuration is frozen")
	// ErrMethodNotFound is returned when a proxy is invoked with a method
	// name outside its exposed surface.
	ErrMethodNotFound = errors.New("method not found on proxy")
	// ErrTargetNotAvailable is returned when a target source cannot produce
	// an instance.
	ErrTargetNotAvailable = errors.New("target instance not available")
	// ErrConcurrencyLimitReached is the error returned when the concurrency limit has been reached
	ErrConcurrencyLimitReached = errors.New("concurrency limit reached")
	// ErrCircuitOpen is returned by the circuit breaker advice while the
	// breaker is tripped.
	ErrCircuitOpen = errors.New("circuit breaker open")
	ErrCacheNotInitialized = errors.New("cache not initialized")
)
