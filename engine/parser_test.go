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
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
	"github.com/rulego/aop/utils/aes"
)

var proxyDsl = []byte(`{
  "proxy": {
    "id": "userProxy",
    "name": "user service proxy",
    "debugMode": true,
    "proxyTargetType": true,
    "exposeProxy": true,
    "frozen": true,
    "configuration": {
      "vars": {"region": "cn"}
    },
    "additionalInfo": {"owner": "core"}
  },
  "advisors": [
    {
      "id": "s1",
      "type": "before",
      "name": "auth check",
      "order": 5,
      "pointcut": "method startsWith 'Save'",
      "configuration": {"handler": "checkAuth"}
    }
  ]
}`)

func TestDecodeProxy(t *testing.T) {
	parser := &JsonParser{}
	def, err := parser.DecodeProxy(proxyDsl)
	assert.Nil(t, err)
	assert.Equal(t, "userProxy", def.Proxy.ID)
	assert.Equal(t, "user service proxy", def.Proxy.Name)
	assert.True(t, def.Proxy.DebugMode)
	assert.True(t, def.Proxy.ProxyTargetType)
	assert.True(t, def.Proxy.ExposeProxy)
	assert.True(t, def.Proxy.Frozen)
	assert.Equal(t, "core", def.Proxy.AdditionalInfo["owner"])

	assert.Equal(t, 1, len(def.Advisors))
	advisor := def.Advisors[0]
	assert.Equal(t, "s1", advisor.Id)
	assert.Equal(t, "before", advisor.Type)
	assert.Equal(t, "auth check", advisor.Name)
	assert.Equal(t, 5, advisor.Order)
	assert.Equal(t, "method startsWith 'Save'", advisor.Pointcut)
	assert.Equal(t, "checkAuth", advisor.Configuration["handler"])

	_, err = parser.DecodeProxy([]byte(`{invalid`))
	assert.NotNil(t, err)
}

func TestEncodeProxyRoundTrip(t *testing.T) {
	parser := &JsonParser{}
	def, err := parser.DecodeProxy(proxyDsl)
	assert.Nil(t, err)

	encoded, err := parser.EncodeProxy(def)
	assert.Nil(t, err)
	decoded, err := parser.DecodeProxy(encoded)
	assert.Nil(t, err)
	assert.Equal(t, def.Proxy.ID, decoded.Proxy.ID)
	assert.Equal(t, def.Proxy.Frozen, decoded.Proxy.Frozen)
	assert.Equal(t, def.Advisors[0].Pointcut, decoded.Advisors[0].Pointcut)
}

func TestDecodeAdvisor(t *testing.T) {
	parser := &JsonParser{}
	advisor, err := parser.DecodeAdvisor([]byte(`{"id":"a1","type":"limiter","order":2,"configuration":{"maxConcurrency":8}}`))
	assert.Nil(t, err)
	assert.Equal(t, "a1", advisor.Id)
	assert.Equal(t, "limiter", advisor.Type)
	assert.Equal(t, 2, advisor.Order)

	encoded, err := parser.EncodeAdvisor(advisor)
	assert.Nil(t, err)
	assert.True(t, strings.Contains(string(encoded), "limiter"))

	_, err = parser.DecodeAdvisor([]byte(`{invalid`))
	assert.NotNil(t, err)
}

// 内置advice种类通过handler配置从Config.Udf解析
func TestInitAdvisorsBuiltinKinds(t *testing.T) {
	config := NewConfig()
	config.RegisterUdf("checkAuth", func(inv types.Invocation) error { return nil })
	config.RegisterUdf("auditResult", func(inv types.Invocation, result interface{}) error { return nil })
	config.RegisterUdf("mapError", func(inv types.Invocation, err error) error { return nil })
	config.RegisterUdf("wrap", func(inv types.Invocation) (interface{}, error) { return inv.Proceed() })

	def := types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore, Configuration: types.Configuration{"handler": "checkAuth"}},
		{Id: "a2", Type: AdvisorTypeAfterReturning, Order: 1, Configuration: types.Configuration{"handler": "auditResult"}},
		{Id: "a3", Type: AdvisorTypeAfterThrowing, Order: 2, Configuration: types.Configuration{"handler": "mapError"}},
		{Id: "a4", Type: AdvisorTypeAround, Order: 3, Configuration: types.Configuration{"handler": "wrap"}},
	}}
	advisors, components, err := initAdvisors(config, &def)
	assert.Nil(t, err)
	assert.Equal(t, 4, len(advisors))
	//内置种类不产生组件实例
	assert.Equal(t, 0, len(components))
	assert.Equal(t, types.AdviceBefore, advisors[0].Advice().Kind())
	assert.Equal(t, types.AdviceAfterReturning, advisors[1].Advice().Kind())
	assert.Equal(t, types.AdviceAfterThrowing, advisors[2].Advice().Kind())
	assert.Equal(t, types.AdviceAround, advisors[3].Advice().Kind())
	assert.Equal(t, 3, advisors[3].Order())
}

// Script包装的Go函数同样可以作为handler
func TestInitAdvisorScriptWrappedHandler(t *testing.T) {
	config := NewConfig()
	config.RegisterUdf("checkAuth", types.Script{
		Type:    types.AllScript,
		Content: func(inv types.Invocation) error { return nil },
	})

	def := types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore, Configuration: types.Configuration{"handler": "checkAuth"}},
	}}
	advisors, _, err := initAdvisors(config, &def)
	assert.Nil(t, err)
	assert.Equal(t, types.AdviceBefore, advisors[0].Advice().Kind())
}

func TestInitAdvisorErrors(t *testing.T) {
	config := NewConfig()

	//缺少handler配置
	def := types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore},
	}}
	_, _, err := initAdvisors(config, &def)
	assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))
	assert.True(t, strings.Contains(err.Error(), "handler"))

	//handler未注册
	def = types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore, Configuration: types.Configuration{"handler": "missing"}},
	}}
	_, _, err = initAdvisors(config, &def)
	assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))
	assert.True(t, strings.Contains(err.Error(), "missing"))

	//handler类型与advice种类不符
	config.RegisterUdf("notBefore", 42)
	def = types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore, Configuration: types.Configuration{"handler": "notBefore"}},
	}}
	_, _, err = initAdvisors(config, &def)
	assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))

	//未注册的组件类型
	def = types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: "nope"},
	}}
	_, _, err = initAdvisors(config, &def)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "component not found"))

	//非法切点表达式
	config.RegisterUdf("checkAuth", func(inv types.Invocation) error { return nil })
	def = types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: AdvisorTypeBefore, Pointcut: "method == ", Configuration: types.Configuration{"handler": "checkAuth"}},
	}}
	_, _, err = initAdvisors(config, &def)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid pointcut expression"))
}

// capturedInit 在组件原型和测试之间共享Init观察结果
type capturedInit struct {
	configuration types.Configuration
	destroyed     int32
}

// capturingComponent 记录Init收到的配置，advice为透传around
type capturingComponent struct {
	box *capturedInit
}

func (c *capturingComponent) Type() string {
	return "capture"
}

func (c *capturingComponent) New() types.AdviceComponent {
	return &capturingComponent{box: c.box}
}

func (c *capturingComponent) Init(config types.Config, configuration types.Configuration) error {
	c.box.configuration = configuration
	return nil
}

func (c *capturingComponent) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		return inv.Proceed()
	}))
}

func (c *capturingComponent) Destroy() {
	atomic.AddInt32(&c.box.destroyed, 1)
}

func captureConfig(t *testing.T, box *capturedInit, opts ...types.Option) types.Config {
	t.Helper()
	custom := new(AdviceComponentRegistry)
	assert.Nil(t, custom.Register(&capturingComponent{box: box}))
	opts = append(opts, types.WithComponentsRegistry(NewCustomComponentRegistry(Components, custom)))
	return NewConfig(opts...)
}

// ${global.*}和${vars.*}占位符在初始化期间替换一次
func TestInitAdvisorsProcessVariables(t *testing.T) {
	box := &capturedInit{}
	config := captureConfig(t, box, types.WithProperties(types.BuildMetadata(types.Metadata{"host": "http://svc"})))

	def := types.ProxyDsl{
		Proxy: types.ProxyBaseInfo{
			ID: "p1",
			Configuration: types.Configuration{
				types.Vars: map[string]interface{}{"path": "v1"},
			},
		},
		Advisors: []*types.AdvisorDsl{
			{Id: "a1", Type: "capture", Configuration: types.Configuration{
				"endpoint": "${global.host}/${vars.path}",
				"keep":     "${vars.unknown}",
			}},
		},
	}
	advisors, components, err := initAdvisors(config, &def)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(advisors))
	assert.Equal(t, 1, len(components))

	assert.Equal(t, "http://svc/v1", box.configuration["endpoint"])
	//未定义的变量保持原样
	assert.Equal(t, "${vars.unknown}", box.configuration["keep"])
	//vars注入组件配置
	vars, ok := box.configuration[types.Vars].(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "v1", vars["path"])
}

// secrets用SecretKey解密后注入组件配置
func TestInitAdvisorsDecryptSecrets(t *testing.T) {
	secretKey := "0123456789abcdef0123456789abcdef"
	encrypted, err := aes.Encrypt("s3cret-token", []byte(secretKey))
	assert.Nil(t, err)

	box := &capturedInit{}
	config := captureConfig(t, box, types.WithSecretKey(secretKey))

	def := types.ProxyDsl{
		Proxy: types.ProxyBaseInfo{
			ID: "p1",
			Configuration: types.Configuration{
				types.Secrets: map[string]interface{}{"token": encrypted},
			},
		},
		Advisors: []*types.AdvisorDsl{
			{Id: "a1", Type: "capture"},
		},
	}
	_, _, err = initAdvisors(config, &def)
	assert.Nil(t, err)

	secrets, ok := box.configuration[types.Secrets].(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "s3cret-token", secrets["token"])
}

// 后续advisor失败时已创建的组件实例被销毁
func TestInitAdvisorsFailureDestroysComponents(t *testing.T) {
	box := &capturedInit{}
	config := captureConfig(t, box)

	def := types.ProxyDsl{Advisors: []*types.AdvisorDsl{
		{Id: "a1", Type: "capture"},
		{Id: "a2", Type: "nope"},
	}}
	_, _, err := initAdvisors(config, &def)
	assert.NotNil(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&box.destroyed))
}

// debugMode自动附加最外层的debug advisor
func TestInitAdvisorsDebugMode(t *testing.T) {
	config := NewConfig()
	def := types.ProxyDsl{Proxy: types.ProxyBaseInfo{ID: "p1", DebugMode: true}}

	advisors, components, err := initAdvisors(config, &def)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(advisors))
	assert.Equal(t, 1, len(components))
	assert.Equal(t, math.MinInt32, advisors[0].Order())
	assert.Equal(t, types.AdviceAround, advisors[0].Advice().Kind())
}

// debugMode代理的调用通过OnDebug回调上报In和Out流
func TestDebugModeCallback(t *testing.T) {
	events := make(chan string, 8)
	config := NewConfig(types.WithOnDebug(func(proxyId string, flowType string, methodName string, args []interface{}, result interface{}, err error) {
		events <- flowType + ":" + methodName + ":" + proxyId
	}))

	dsl := []byte(`{"proxy": {"id": "dbg1", "debugMode": true}}`)
	factory, err := NewProxyFactory("", dsl, WithConfig(config))
	assert.Nil(t, err)
	assert.Equal(t, "dbg1", factory.Id())
	assert.Nil(t, factory.SetTarget(test.NewUserServiceType(), test.NewUserService()))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	result, err := proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong", result)

	//上报是异步的，两个流向的到达顺序不保证
	var received []string
	for i := 0; i < 2; i++ {
		select {
		case event := <-events:
			received = append(received, event)
		case <-time.After(2 * time.Second):
			t.Fatal("debug event not received")
		}
	}
	sort.Strings(received)
	assert.Equal(t, []string{"IN:Ping:dbg1", "OUT:Ping:dbg1"}, received)
}
