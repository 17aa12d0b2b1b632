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

package advice

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/json"
	"github.com/rulego/aop/utils/maps"
	"github.com/rulego/aop/utils/mqtt"
	"github.com/rulego/aop/utils/str"
)

// AuditClientNotInitErr audit mqtt客户端未初始化错误
var AuditClientNotInitErr = errors.New("audit mqtt client not initialized")

// 注册组件
func init() {
	Registry.Add(&Audit{})
}

// AuditConfiguration 组件配置
type AuditConfiguration struct {
	// Topic 发布主题，可以使用 ${type} ${method} 变量
	Topic    string
	Server   string
	Username string
	Password string
	//MaxReconnectInterval 重连间隔 单位秒
	MaxReconnectInterval int
	QOS                  uint8
	CleanSession         bool
	ClientID             string
	CAFile               string
	CertFile             string
	CertKeyFile          string
}

func (x *AuditConfiguration) ToMqttConfig() mqtt.Config {
	if x.MaxReconnectInterval < 0 {
		x.MaxReconnectInterval = 60
	}
	return mqtt.Config{
		Server:               x.Server,
		Username:             x.Username,
		Password:             x.Password,
		QOS:                  x.QOS,
		MaxReconnectInterval: time.Duration(x.MaxReconnectInterval) * time.Second,
		CleanSession:         x.CleanSession,
		ClientID:             x.ClientID,
		CAFile:               x.CAFile,
		CertFile:             x.CertFile,
		CertKeyFile:          x.CertKeyFile,
	}
}

// AuditRecord is one published invocation record.
type AuditRecord struct {
	// Id 调用ID
	Id string `json:"id"`
	// Type 目标类型名
	Type string `json:"type"`
	// Method 方法名
	Method string `json:"method"`
	// Args 调用参数
	Args []interface{} `json:"args"`
	// Result 调用结果类型，Success或Failure
	Result string `json:"result"`
	// Error 错误信息
	Error string `json:"error,omitempty"`
	// CostMs 调用耗时，毫秒
	CostMs int64 `json:"costMs"`
	// Ts 记录时间戳，毫秒
	Ts int64 `json:"ts"`
}

// Audit publishes one record per invocation to an MQTT topic: invocation id,
// type and method, arguments, outcome and latency. Publishing is
// asynchronous and failures only log, so auditing never changes the outcome
// of the invocation it observes. The client connects lazily on first use.
//
// Audit 将每次调用作为一条记录发布到MQTT主题：调用ID、类型与方法、参数、
// 结果和耗时。发布是异步的，失败只记录日志，因此审计不会改变被观察调用的
// 结果。客户端在首次使用时延迟连接。
type Audit struct {
	//组件配置
	Config     AuditConfiguration
	config     types.Config
	mqttClient *mqtt.Client
	//是否正在连接mqtt 服务器
	connecting int32
}

// Ensuring Audit implements types.AdviceComponent interface.
var _ types.AdviceComponent = (*Audit)(nil)

// Type 组件类型
func (x *Audit) Type() string {
	return "audit"
}

func (x *Audit) New() types.AdviceComponent {
	return &Audit{Config: AuditConfiguration{
		Topic:                "/audit/${type}/${method}",
		Server:               "127.0.0.1:1883",
		QOS:                  0,
		MaxReconnectInterval: 60,
	}}
}

// Init 初始化组件
func (x *Audit) Init(config types.Config, configuration types.Configuration) error {
	x.config = config
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		_ = x.tryInitClient()
	}
	return err
}

func (x *Audit) Advice() *types.Advice {
	return types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		start := time.Now()
		result, err := inv.Proceed()
		record := AuditRecord{
			Id:     inv.ID(),
			Type:   inv.TargetType().Name,
			Method: inv.Method().Name,
			Args:   append([]interface{}{}, inv.Arguments()...),
			CostMs: time.Since(start).Milliseconds(),
			Ts:     time.Now().UnixMilli(),
		}
		if err != nil {
			record.Result = types.Failure
			record.Error = err.Error()
		} else {
			record.Result = types.Success
		}
		//异步发布审计记录
		x.submitTask(func() {
			x.publish(record)
		})
		return result, err
	}))
}

// Destroy 销毁组件
func (x *Audit) Destroy() {
	if x.mqttClient != nil {
		_ = x.mqttClient.Close()
	}
}

func (x *Audit) publish(record AuditRecord) {
	topic := str.SprintfDict(x.Config.Topic, map[string]string{
		"type":   record.Type,
		"method": record.Method,
	})
	data, err := json.Marshal(record)
	if err != nil {
		x.config.Logger.Printf("audit advice marshal error:%s", err)
		return
	}
	if x.mqttClient == nil {
		if err := x.tryInitClient(); err != nil {
			x.config.Logger.Printf("audit advice connect error:%s", err)
		} else {
			x.config.Logger.Printf("audit advice publish error:%s", AuditClientNotInitErr)
		}
	} else if err := x.mqttClient.Publish(topic, x.Config.QOS, data); err != nil {
		x.config.Logger.Printf("audit advice publish error:%s", err)
	}
}

func (x *Audit) submitTask(task func()) {
	if x.config.Pool != nil {
		if submitErr := x.config.Pool.Submit(task); submitErr != nil {
			x.config.Logger.Printf("audit advice submit task error:%s", submitErr)
		}
	} else {
		go task()
	}
}

// tryInitClient 尝试重连mqtt客户端
func (x *Audit) tryInitClient() error {
	if x.mqttClient == nil && atomic.CompareAndSwapInt32(&x.connecting, 0, 1) {
		var err error
		ctx, cancel := context.WithTimeout(context.TODO(), 4*time.Second)
		defer func() {
			cancel()
			atomic.StoreInt32(&x.connecting, 0)
		}()
		x.mqttClient, err = mqtt.NewClient(ctx, x.Config.ToMqttConfig())
		return err
	} else {
		return nil
	}
}
