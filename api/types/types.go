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

// 结果类型 调用成功或失败，上报给调试回调
// invocation outcome types
const (
	Success = "Success"
	Failure = "Failure"
)

// flow direction type
// 流向 调用流入、流出代理的方向
const (
	In  = "IN"
	Out = "OUT"
	Log = "Log"
)

// 脚本类型
const (
	Js = "Js"
	//AllScript 适用于所有脚本引擎
	AllScript = "*"
)

const ScriptFuncSeparator = "#"

// JsEngine JavaScript脚本引擎
type JsEngine interface {
	//Execute 执行js脚本指定函数，js脚本在JsEngine实例化的时候进行初始化
	//inv 当前调用，脚本内通过$ctx访问
	//functionName 执行的函数名
	//argumentList 函数参数列表
	Execute(inv Invocation, functionName string, argumentList ...interface{}) (interface{}, error)
	//Stop 释放js引擎资源
	Stop()
}

// Script 脚本 用于注册原生函数或者使用go定义的自定义函数
type Script struct {
	//Type 脚本类型，默认Js
	Type string
	//Content 脚本内容或者自定义函数
	Content interface{}
}

// Metadata 方法与调用携带的元数据
type Metadata map[string]string

// NewMetadata 创建一个新的元数据实例
func NewMetadata() Metadata {
	return make(Metadata)
}

// BuildMetadata 通过map，创建一个新的元数据实例
func BuildMetadata(data Metadata) Metadata {
	metadata := make(Metadata)
	for k, v := range data {
		metadata[k] = v
	}
	return metadata
}

// Copy 复制
func (md Metadata) Copy() Metadata {
	return BuildMetadata(md)
}

// Has 是否存在某个key
func (md Metadata) Has(key string) bool {
	_, ok := md[key]
	return ok
}

// GetValue 通过key获取值
func (md Metadata) GetValue(key string) string {
	v, _ := md[key]
	return v
}

// PutValue 设置值
func (md Metadata) PutValue(key, value string) {
	if key != "" {
		md[key] = value
	}
}

// Values 获取所有值
func (md Metadata) Values() map[string]string {
	return md
}

// Configuration 声明式定义中未解码的自由格式配置
type Configuration map[string]interface{}

// Copy 复制
func (c Configuration) Copy() Configuration {
	copied := make(Configuration)
	for k, v := range c {
		copied[k] = v
	}
	return copied
}

// Pool 协程池
type Pool interface {
	//Submit 往协程池提交一个任务
	//如果协程池满返回错误
	Submit(task func()) error
	//Release 释放
	Release()
}
