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
	"plugin"
	"sync"

	"github.com/rulego/aop/api/types"
	builtinadvice "github.com/rulego/aop/builtin/advice"
)

// PluginsSymbol is the symbol used to identify plugins in a Go plugin file.
const PluginsSymbol = "Plugins"

// Components is the default registry for advice components.
var Components = new(AdviceComponentRegistry)

// init registers default components to the default component registry.
func init() {
	var components []types.AdviceComponent
	components = append(components, builtinadvice.Registry.Components()...)

	// Register all components to the default component registry.
	for _, component := range components {
		_ = Components.Register(component)
	}

	// Script components produce custom advice; the adapter resolves it.
	Registry.RegisterAdapter(&builtinadvice.ScriptAdapter{})
}

// AdviceComponentRegistry is a registry for advice components.
type AdviceComponentRegistry struct {
	// components is a map of advice component prototypes.
	components map[string]types.AdviceComponent
	// plugins is a map of plugin components.
	plugins map[string][]types.AdviceComponent
	// RWMutex is a read/write mutex lock.
	sync.RWMutex
}

// Ensuring AdviceComponentRegistry implements types.ComponentRegistry interface.
var _ types.ComponentRegistry = (*AdviceComponentRegistry)(nil)

// Register adds an advice component to the registry.
func (r *AdviceComponentRegistry) Register(component types.AdviceComponent) error {
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.AdviceComponent)
	}
	if _, ok := r.components[component.Type()]; ok {
		return errors.New("the component already exists. componentType=" + component.Type())
	}
	r.components[component.Type()] = component

	return nil
}

// RegisterPlugin adds advice components from a plugin file.
func (r *AdviceComponentRegistry) RegisterPlugin(name string, file string) error {
	builder := &PluginComponentRegistry{name: name, file: file}
	if err := builder.Init(); err != nil {
		return err
	}
	components := builder.Components()

	r.Lock()
	defer r.Unlock()

	// Check for existing components
	for _, component := range components {
		if _, ok := r.components[component.Type()]; ok {
			return errors.New("the component already exists. componentType=" + component.Type())
		}
	}

	// Initialize maps if needed
	if r.components == nil {
		r.components = make(map[string]types.AdviceComponent)
	}
	if r.plugins == nil {
		r.plugins = make(map[string][]types.AdviceComponent)
	}

	// Register all components
	for _, component := range components {
		r.components[component.Type()] = component
	}
	r.plugins[name] = components
	return nil
}

// Unregister removes a component from the registry by its type or plugin name.
func (r *AdviceComponentRegistry) Unregister(componentType string) error {
	r.Lock()
	defer r.Unlock()
	var removed = false

	// Check if it's a plugin name
	if components, ok := r.plugins[componentType]; ok {
		for _, component := range components {
			// Delete all components of this plugin
			delete(r.components, component.Type())
		}
		delete(r.plugins, componentType)
		removed = true
	}

	// Check if it's a component type
	if _, ok := r.components[componentType]; ok {
		// Delete the component
		delete(r.components, componentType)
		removed = true
	}

	if !removed {
		return fmt.Errorf("component not found. componentType=%s", componentType)
	} else {
		return nil
	}
}

// NewComponent creates a new instance of an advice component by its type.
func (r *AdviceComponentRegistry) NewComponent(componentType string) (types.AdviceComponent, error) {
	r.RLock()
	defer r.RUnlock()

	if component, ok := r.components[componentType]; !ok {
		return nil, fmt.Errorf("component not found. componentType=%s", componentType)
	} else {
		return component.New(), nil
	}
}

// GetComponents returns a map of all registered components.
func (r *AdviceComponentRegistry) GetComponents() map[string]types.AdviceComponent {
	r.RLock()
	defer r.RUnlock()
	var components = map[string]types.AdviceComponent{}
	for k, v := range r.components {
		components[k] = v
	}
	return components
}

// PluginComponentRegistry is an initializer for Go plugin components.
type PluginComponentRegistry struct {
	name     string
	file     string
	registry types.PluginRegistry
}

// Init initializes the plugin component registry by loading the plugin from a file.
func (p *PluginComponentRegistry) Init() error {
	pluginRegistry, err := loadPlugin(p.file)
	if err != nil {
		return err
	} else {
		p.registry = pluginRegistry
		return nil
	}
}

// Components returns a slice of components provided by the plugin.
func (p *PluginComponentRegistry) Components() []types.AdviceComponent {
	if p.registry != nil {
		return p.registry.Components()
	}
	return nil
}

// loadPlugin loads a plugin from a file and registers it with a given name
func loadPlugin(file string) (types.PluginRegistry, error) {
	// Use the plugin package to open the file and look up the exported symbol "Plugins"
	p, err := plugin.Open(file)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(PluginsSymbol)
	if err != nil {
		return nil, err
	}
	// Use type assertion to check if the symbol is a PluginRegistry implementation
	plugin, ok := sym.(types.PluginRegistry)
	if !ok {
		return nil, errors.New("invalid plugin")
	}
	return plugin, nil
}
