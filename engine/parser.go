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

package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/rulego/aop/api/types"
	builtinadvice "github.com/rulego/aop/builtin/advice"
	"github.com/rulego/aop/pointcut"
	"github.com/rulego/aop/utils/aes"
	"github.com/rulego/aop/utils/json"
	"github.com/rulego/aop/utils/str"
)

// 内置advice种类在DSL中的type取值，其它取值从组件注册表解析
const (
	AdvisorTypeAround         = "around"
	AdvisorTypeBefore         = "before"
	AdvisorTypeAfterReturning = "afterReturning"
	AdvisorTypeAfterThrowing  = "afterThrowing"
)

// JsonParser Json
type JsonParser struct {
}

// Ensuring JsonParser implements types.Parser interface.
var _ types.Parser = (*JsonParser)(nil)

// DecodeProxy 通过json解析代理定义结构体
func (p *JsonParser) DecodeProxy(dsl []byte) (types.ProxyDsl, error) {
	var def types.ProxyDsl
	err := json.Unmarshal(dsl, &def)
	return def, err
}

// DecodeAdvisor 通过json解析Advisor定义结构体
func (p *JsonParser) DecodeAdvisor(dsl []byte) (*types.AdvisorDsl, error) {
	var def types.AdvisorDsl
	if err := json.Unmarshal(dsl, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (p *JsonParser) EncodeProxy(def interface{}) ([]byte, error) {
	if v, err := json.Marshal(def); err != nil {
		return nil, err
	} else {
		//格式化Json
		return json.Format(v)
	}
}

func (p *JsonParser) EncodeAdvisor(def interface{}) ([]byte, error) {
	if v, err := json.Marshal(def); err != nil {
		return nil, err
	} else {
		//格式化Json
		return json.Format(v)
	}
}

// dslEnv carries the proxy-level variables and decrypted secrets available
// to advisor configurations during initialization.
type dslEnv struct {
	vars    map[string]string
	secrets map[string]string
}

// newDslEnv reads the vars and secrets sections of a proxy definition.
// Secrets are decrypted with Config.SecretKey; values that fail to decrypt
// are kept as-is.
func newDslEnv(config types.Config, def types.ProxyBaseInfo) *dslEnv {
	env := &dslEnv{}
	if def.Configuration != nil {
		env.vars = str.ToStringMapString(def.Configuration[types.Vars])
		secrets := str.ToStringMapString(def.Configuration[types.Secrets])
		env.secrets = decryptSecret(secrets, []byte(config.SecretKey))
	}
	return env
}

// decryptSecret decrypts the secrets in the input map using the provided secret key
func decryptSecret(inputMap map[string]string, secretKey []byte) map[string]string {
	result := make(map[string]string)
	for key, value := range inputMap {
		if plaintext, err := aes.Decrypt(value, secretKey); err == nil {
			result[key] = plaintext
		} else {
			result[key] = value
		}
	}
	return result
}

// 使用全局配置替换advisor占位符配置，例如：${global.propertyKey}、${vars.varKey}
// 替换在初始化期间进行，且只进行一次
func processVariables(config types.Config, env *dslEnv, configuration types.Configuration) types.Configuration {
	var result = make(types.Configuration)
	globalEnv := make(map[string]string)

	if config.Properties != nil {
		globalEnv = config.Properties.Values()
	}

	var varsEnv map[string]string
	var decryptSecrets map[string]string

	if env != nil {
		varsEnv = copyMap(env.vars)
		decryptSecrets = copyMap(env.secrets)
	}
	for key, value := range configuration {
		if strV, ok := value.(string); ok {
			v := str.SprintfVar(strV, types.Global+".", globalEnv)
			v = str.SprintfVar(v, types.Vars+".", varsEnv)
			result[key] = v
		} else {
			result[key] = value
		}
	}
	if varsEnv != nil {
		result[types.Vars] = varsEnv
	}
	if decryptSecrets != nil {
		result[types.Secrets] = decryptSecrets
	}
	return result
}

func copyMap(inputMap map[string]string) map[string]string {
	result := make(map[string]string)
	for key, value := range inputMap {
		result[key] = value
	}
	return result
}

// initAdvisors builds the advisor list of a proxy definition in declaration
// order, together with the advice component instances it created. Any failure
// destroys the instances built so far and leaves nothing behind.
func initAdvisors(config types.Config, def *types.ProxyDsl) ([]types.Advisor, []types.AdviceComponent, error) {
	env := newDslEnv(config, def.Proxy)
	var advisors []types.Advisor
	var components []types.AdviceComponent
	destroyAll := func() {
		for _, component := range components {
			component.Destroy()
		}
	}

	if def.Proxy.DebugMode {
		//调试模式自动附加debug advice，包裹全部advisor
		debugComponent := &builtinadvice.Debug{}
		if err := debugComponent.Init(config, types.Configuration{
			builtinadvice.KeyProxyId: def.Proxy.ID,
		}); err != nil {
			return nil, nil, err
		}
		advisors = append(advisors, types.NewAdvisor(math.MinInt32, nil, debugComponent.Advice()))
		components = append(components, debugComponent)
	}

	for _, item := range def.Advisors {
		advisor, component, err := initAdvisor(config, env, item)
		if err != nil {
			destroyAll()
			return nil, nil, err
		}
		advisors = append(advisors, advisor)
		if component != nil {
			components = append(components, component)
		}
	}
	return advisors, components, nil
}

// initAdvisor builds one advisor from its declarative definition. Builtin
// kinds resolve their handler function from Config.Udf; every other type is
// instantiated through the advice component registry.
func initAdvisor(config types.Config, env *dslEnv, def *types.AdvisorDsl) (types.Advisor, types.AdviceComponent, error) {
	if def == nil {
		return nil, nil, errors.New("advisor definition can not be nil")
	}
	var pointcutMatcher types.Pointcut
	if def.Pointcut != "" {
		matcher, err := pointcut.Expression(def.Pointcut)
		if err != nil {
			return nil, nil, fmt.Errorf("advisor %s: invalid pointcut expression: %v", advisorLabel(def), err)
		}
		pointcutMatcher = matcher
	}
	configuration := processVariables(config, env, def.Configuration)

	switch def.Type {
	case AdvisorTypeAround, AdvisorTypeBefore, AdvisorTypeAfterReturning, AdvisorTypeAfterThrowing:
		builtAdvice, err := builtinKindAdvice(config, def.Type, configuration)
		if err != nil {
			return nil, nil, fmt.Errorf("advisor %s: %w", advisorLabel(def), err)
		}
		return types.NewAdvisor(def.Order, pointcutMatcher, builtAdvice), nil, nil
	default:
		registry := config.ComponentsRegistry
		if registry == nil {
			registry = Components
		}
		component, err := registry.NewComponent(def.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("advisor %s: %w", advisorLabel(def), err)
		}
		if err := component.Init(config, configuration); err != nil {
			return nil, nil, fmt.Errorf("advisor %s: init %s component: %v", advisorLabel(def), def.Type, err)
		}
		return types.NewAdvisor(def.Order, pointcutMatcher, component.Advice()), component, nil
	}
}

func advisorLabel(def *types.AdvisorDsl) string {
	if def.Id != "" {
		return def.Id
	}
	if def.Name != "" {
		return def.Name
	}
	return def.Type
}

// builtinKindAdvice resolves the handler of a builtin advice kind from
// Config.Udf and wraps it in the matching advice variant.
func builtinKindAdvice(config types.Config, kind string, configuration types.Configuration) (*types.Advice, error) {
	handlerName := str.ToString(configuration[types.AdviceConfigurationKeyHandler])
	if handlerName == "" {
		return nil, fmt.Errorf("%w: %s advice requires a %s configuration", types.ErrUnknownAdviceType, kind, types.AdviceConfigurationKeyHandler)
	}
	handler, ok := lookupUdf(config, handlerName)
	if !ok {
		return nil, fmt.Errorf("%w: handler %s not registered", types.ErrUnknownAdviceType, handlerName)
	}
	switch kind {
	case AdvisorTypeAround:
		switch fn := handler.(type) {
		case types.Interceptor:
			return types.NewAroundAdvice(fn), nil
		case func(types.Invocation) (interface{}, error):
			return types.NewAroundAdvice(types.InterceptorFunc(fn)), nil
		}
	case AdvisorTypeBefore:
		switch fn := handler.(type) {
		case types.BeforeFunc:
			return types.NewBeforeAdvice(fn), nil
		case func(types.Invocation) error:
			return types.NewBeforeAdvice(fn), nil
		}
	case AdvisorTypeAfterReturning:
		switch fn := handler.(type) {
		case types.AfterReturningFunc:
			return types.NewAfterReturningAdvice(fn), nil
		case func(types.Invocation, interface{}) error:
			return types.NewAfterReturningAdvice(fn), nil
		}
	case AdvisorTypeAfterThrowing:
		switch fn := handler.(type) {
		case []types.ThrowsHandler:
			return types.NewThrowsAdvice(fn...), nil
		case types.ThrowsHandler:
			return types.NewThrowsAdvice(fn), nil
		case *types.ThrowsHandler:
			return types.NewThrowsAdvice(*fn), nil
		case func(types.Invocation, error) error:
			return types.NewThrowsAdvice(types.ThrowsHandler{Handle: fn}), nil
		}
	}
	return nil, fmt.Errorf("%w: handler %s has unsupported type %T for %s advice", types.ErrUnknownAdviceType, handlerName, handler, kind)
}

// lookupUdf resolves a registered function by name, unwrapping Script values.
func lookupUdf(config types.Config, name string) (interface{}, bool) {
	if config.Udf == nil {
		return nil, false
	}
	if v, ok := config.Udf[name]; ok {
		if script, isScript := v.(types.Script); isScript {
			return script.Content, true
		}
		return v, true
	}
	return nil, false
}
