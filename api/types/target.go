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

import (
	"context"
	"fmt"
)

// MethodFunc is the dispatch function of one method in a service type's
// method table. It receives the target instance explicitly, so one table
// serves every instance a target source produces.
//
// MethodFunc 是服务类型方法表中单个方法的调度函数。它显式接收目标实例，
// 因此同一张方法表可服务于目标源产生的任意实例。
type MethodFunc func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error)

// Method describes a single invocable operation exposed by a service type.
//
// Method 描述服务类型暴露的单个可调用操作。
type Method struct {
	// Name is the method name, unique within its service type.
	Name string
	// Attributes carries user-defined metadata evaluated by pointcuts.
	Attributes Metadata
	// Func dispatches the call to the target instance. A nil Func marks a
	// declared-but-unimplemented method; invoking it fails.
	Func MethodFunc
}

// ServiceInterface describes an interface a service type declares: a name
// plus the set of method names the interface requires. An interface with no
// methods is a marker and never makes a type interface-proxyable on its own.
//
// ServiceInterface 描述服务类型声明的接口：名称以及接口要求的方法名集合。
// 没有方法的接口是标记接口，自身不会使类型可做接口代理。
type ServiceInterface struct {
	Name    string
	methods map[string]struct{}
	names   []string
}

// NewServiceInterface creates an interface descriptor.
func NewServiceInterface(name string, methodNames ...string) *ServiceInterface {
	si := &ServiceInterface{Name: name, methods: make(map[string]struct{})}
	for _, m := range methodNames {
		if _, ok := si.methods[m]; ok {
			continue
		}
		si.methods[m] = struct{}{}
		si.names = append(si.names, m)
	}
	return si
}

// Marker reports whether the interface declares no methods.
func (si *ServiceInterface) Marker() bool {
	return len(si.names) == 0
}

// Has reports whether the interface declares the method name.
func (si *ServiceInterface) Has(methodName string) bool {
	_, ok := si.methods[methodName]
	return ok
}

// MethodNames returns the declared method names in declaration order.
func (si *ServiceInterface) MethodNames() []string {
	return si.names
}

// ServiceType is the descriptor of a proxyable type: its full method table,
// the interfaces it implements, and how new instances are constructed. It
// replaces runtime reflection with an explicit dispatch table; proxies and
// pointcuts operate purely on this descriptor.
//
// ServiceType 是可代理类型的描述符：完整方法表、实现的接口以及新实例的构造方式。
// 它用显式调度表取代运行时反射；代理和切点完全基于该描述符工作。
type ServiceType struct {
	// Name is the type name, used in logs, caches and pointcut expressions.
	Name string
	// Sealed marks a type that must not be subclass-proxied.
	Sealed bool
	// Constructor builds a fresh instance, enabling subclass proxies and
	// prototype target sources. Optional.
	Constructor func() (interface{}, error)
	// Attributes carries user-defined metadata evaluated by pointcuts.
	Attributes Metadata

	methods    map[string]*Method
	order      []string
	interfaces []*ServiceInterface
}

// NewServiceType creates an empty service type descriptor.
func NewServiceType(name string) *ServiceType {
	return &ServiceType{Name: name, methods: make(map[string]*Method)}
}

// AddMethod registers a method in the table. Re-adding a name replaces the
// previous entry but keeps its position. Returns the type for chaining.
func (t *ServiceType) AddMethod(m Method) *ServiceType {
	method := m
	if _, ok := t.methods[m.Name]; !ok {
		t.order = append(t.order, m.Name)
	}
	t.methods[m.Name] = &method
	return t
}

// Implement declares that the type implements the given interface. Returns
// the type for chaining.
func (t *ServiceType) Implement(si *ServiceInterface) *ServiceType {
	t.interfaces = append(t.interfaces, si)
	return t
}

// Method looks up a method by name.
func (t *ServiceType) Method(name string) (*Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

// Methods returns the method table in declaration order.
func (t *ServiceType) Methods() []*Method {
	out := make([]*Method, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.methods[name])
	}
	return out
}

// Interfaces returns the declared interfaces in declaration order.
func (t *ServiceType) Interfaces() []*ServiceInterface {
	return t.interfaces
}

// Implements reports whether the type declares an interface with the name.
func (t *ServiceType) Implements(name string) bool {
	for _, si := range t.interfaces {
		if si.Name == name {
			return true
		}
	}
	return false
}

// String returns the type name.
func (t *ServiceType) String() string {
	return t.Name
}

// TargetSource supplies the instance behind a proxy for each invocation and
// takes it back afterwards. Static sources return the same instance every
// time and skip the release step; dynamic sources (prototype, pooled,
// hot-swappable) may hand out a different instance per call.
//
// TargetSource 为每次调用提供代理背后的实例，并在调用后回收。
// 静态源每次返回同一实例并跳过释放步骤；动态源（原型、池化、可热替换）
// 每次调用可能给出不同的实例。
type TargetSource interface {
	// TargetType returns the descriptor of the instances this source produces.
	TargetType() *ServiceType
	// Static reports whether GetTarget always returns the same instance.
	Static() bool
	// GetTarget returns an instance to invoke. Called once per invocation
	// for non-static sources.
	GetTarget() (interface{}, error)
	// ReleaseTarget gives an instance back after the invocation completes.
	// Not called for static sources.
	ReleaseTarget(target interface{}) error
}

// MethodNotFoundError wraps ErrMethodNotFound with the type and method name.
func MethodNotFoundError(serviceType *ServiceType, methodName string) error {
	typeName := ""
	if serviceType != nil {
		typeName = serviceType.Name
	}
	return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, typeName, methodName)
}
