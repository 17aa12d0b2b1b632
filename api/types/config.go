/*
 * Copyright 2023 The RuleGo Authors.
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

import (
	"math"
	"time"

	"github.com/rulego/aop/api/pool"
)

// OnDebug is a global debug callback function for proxies.
var OnDebug func(proxyId string, flowType string, methodName string, args []interface{}, result interface{}, err error)

// Config defines the configuration shared by proxy factories.
type Config struct {
	// OnDebug is a callback function for invocation debug information. It is only called by proxies
	// carrying the debug advice.
	// - proxyId: The ID of the proxy configuration.
	// - flowType: The event type, either IN (call entering the chain) or OUT (call leaving the chain).
	// - methodName: The invoked method.
	// - args: The invocation arguments at that point.
	// - result: The method result. Only meaningful if flowType is OUT.
	// - err: Error information, if any.
	OnDebug func(proxyId string, flowType string, methodName string, args []interface{}, result interface{}, err error)
	// ScriptMaxExecutionTime is the maximum execution time for script advice, defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// Pool is the interface for a coroutine pool, used by advice that publishes events asynchronously.
	// If not configured, the go func method is used by default.
	// The default implementation is `pool.WorkerPool`. It is compatible with ants coroutine pool and can be implemented using ants.
	// Example:
	//   pool, _ := ants.NewPool(math.MaxInt32)
	//   config := aop.NewConfig(types.WithPool(pool))
	Pool Pool
	// AdapterRegistry resolves advice objects into advisors and interceptors.
	// Defaults to the shared `engine.Registry`.
	AdapterRegistry AdapterRegistry
	// ComponentsRegistry is the advice component registry, defaulting to `aop.Registry`.
	// The DSL parser resolves declarative advisor types through it.
	ComponentsRegistry ComponentRegistry
	// Parser is the proxy definition parser interface, defaulting to `aop.JsonParser`.
	Parser Parser
	// StrictAdapterMatch makes adapter resolution fail with ErrAmbiguousAdvice
	// when more than one custom adapter claims the same advice, instead of
	// silently taking the first registered one.
	StrictAdapterMatch bool
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Properties are global properties in key-value format.
	// Advice configurations and script environments can read them via the `global` namespace.
	Properties Metadata
	// Udf is a map for registering custom Golang functions and native scripts that can be called
	// at runtime by script advice, and referenced by name from declarative advisor definitions.
	Udf map[string]interface{}
	// Cache is a global cache instance shared by all proxies built from this config,
	// used by the cache advice and available for advice cooperation.
	Cache Cache
	// SecretKey is an AES-256 key of 32 characters in length, used for decrypting the
	// `secrets` section of a declarative proxy definition.
	SecretKey string
}

// RegisterUdf registers a custom function. Function names can be repeated for different script types.
func (c *Config) RegisterUdf(name string, value interface{}) {
	if c.Udf == nil {
		c.Udf = make(map[string]interface{})
	}
	if script, ok := value.(Script); ok {
		if script.Type != AllScript {
			// Resolve function name conflicts for different script types.
			name = script.Type + ScriptFuncSeparator + name
		}
	}
	c.Udf[name] = value
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewMetadata(),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// DefaultPool provides a default coroutine pool.
func DefaultPool() Pool {
	wp := &pool.WorkerPool{MaxWorkersCount: math.MaxInt32}
	wp.Start()
	return wp
}
