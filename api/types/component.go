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
	"sync"
)

// AdviceComponent is a reusable, configurable advice building block that can
// be registered by type and instantiated from declarative advisor
// definitions. Component instances are prototypes: New() produces a fresh
// instance per definition, Init configures it, Advice exposes the result.
//
// AdviceComponent 是可复用、可配置的 advice 构建块，按类型注册，
// 可从声明式 Advisor 定义实例化。组件实例是原型：New() 为每个定义生成
// 新实例，Init 进行配置，Advice 暴露结果。
type AdviceComponent interface {
	// Type returns the component type, unique within a registry.
	Type() string
	// New creates a fresh, unconfigured instance of this component.
	New() AdviceComponent
	// Init configures the instance from a declarative definition.
	Init(config Config, configuration Configuration) error
	// Advice returns the configured advice. Called after Init.
	Advice() *Advice
	// Destroy releases resources held by the instance (connections, timers).
	Destroy()
}

// ComponentRegistry manages advice components by type.
type ComponentRegistry interface {
	// Register adds a component prototype. Registering a duplicate type fails.
	Register(component AdviceComponent) error
	// Unregister removes component prototypes by type.
	Unregister(componentType string) error
	// NewComponent creates an unconfigured instance of the given type.
	NewComponent(componentType string) (AdviceComponent, error)
	// GetComponents returns the registered prototypes keyed by type.
	GetComponents() map[string]AdviceComponent
}

// PluginRegistry 通过Go plugin提供advice组件
type PluginRegistry interface {
	//Init 初始化
	Init() error
	//Components 组件列表
	Components() []AdviceComponent
}

// SafeComponentSlice 安全的组件列表切片
type SafeComponentSlice struct {
	//组件列表
	components []AdviceComponent
	sync.Mutex
}

// Add 线程安全地添加元素
func (p *SafeComponentSlice) Add(components ...AdviceComponent) {
	p.Lock()
	defer p.Unlock()
	for _, component := range components {
		p.components = append(p.components, component)
	}
}

// Components 获取组件列表
func (p *SafeComponentSlice) Components() []AdviceComponent {
	p.Lock()
	defer p.Unlock()
	return p.components
}
