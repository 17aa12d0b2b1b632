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

// Package reflect provides utility functions for reflection-based operations.
// It builds service type descriptors and interface descriptors from plain Go
// objects, so callers do not have to assemble method tables by hand.
//
// Key features:
// - GetServiceType: Builds a ServiceType descriptor from a Go object
// - GetServiceInterface: Builds a ServiceInterface descriptor from a Go interface
// - GetMethodNames: Retrieves the exported method names of a type
//
// The generated method table adapts untyped invocation arguments to the
// method's parameter types at call time. Methods whose signatures cannot be
// expressed as a single result plus optional error are left out of the table.
package reflect

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rulego/aop/api/types"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// GetServiceType 通过反射从Go对象构建服务类型描述符
// instance建议传指针，这样方法表包含指针接收者方法
// ifacePtrs 可选的接口指针列表，例如 (*UserService)(nil)，用于声明类型实现的接口
func GetServiceType(instance interface{}, ifacePtrs ...interface{}) (*types.ServiceType, error) {
	if instance == nil {
		return nil, fmt.Errorf("instance can not nil")
	}
	t := reflect.TypeOf(instance)
	name := typeName(t)
	if name == "" {
		return nil, fmt.Errorf("unsupported instance type: %s", t.String())
	}
	serviceType := types.NewServiceType(name)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		elem := t.Elem()
		serviceType.Constructor = func() (interface{}, error) {
			return reflect.New(elem).Interface(), nil
		}
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		methodFunc, ok := buildMethodFunc(m)
		if !ok {
			//返回值形态无法适配的方法不进方法表
			continue
		}
		serviceType.AddMethod(types.Method{
			Name:       m.Name,
			Attributes: types.NewMetadata(),
			Func:       methodFunc,
		})
	}
	for _, ifacePtr := range ifacePtrs {
		serviceInterface, ifaceType, err := serviceInterfaceOf(ifacePtr)
		if err != nil {
			return nil, err
		}
		if !t.Implements(ifaceType) {
			return nil, fmt.Errorf("%s does not implement %s", name, serviceInterface.Name)
		}
		serviceType.Implement(serviceInterface)
	}
	return serviceType, nil
}

// GetServiceInterface 从Go接口指针构建接口描述符，例如 GetServiceInterface((*UserService)(nil))
func GetServiceInterface(ifacePtr interface{}) (*types.ServiceInterface, error) {
	serviceInterface, _, err := serviceInterfaceOf(ifacePtr)
	return serviceInterface, err
}

// GetMethodNames 获取类型所有可导出方法名
func GetMethodNames(instance interface{}) []string {
	if instance == nil {
		return nil
	}
	t := reflect.TypeOf(instance)
	var names []string
	for i := 0; i < t.NumMethod(); i++ {
		if m := t.Method(i); m.IsExported() {
			names = append(names, m.Name)
		}
	}
	return names
}

func serviceInterfaceOf(ifacePtr interface{}) (*types.ServiceInterface, reflect.Type, error) {
	if ifacePtr == nil {
		return nil, nil, fmt.Errorf("interface pointer can not nil")
	}
	t := reflect.TypeOf(ifacePtr)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return nil, nil, fmt.Errorf("expected interface pointer, got %s", t.String())
	}
	ifaceType := t.Elem()
	var methodNames []string
	for i := 0; i < ifaceType.NumMethod(); i++ {
		methodNames = append(methodNames, ifaceType.Method(i).Name)
	}
	return types.NewServiceInterface(ifaceType.Name(), methodNames...), ifaceType, nil
}

// buildMethodFunc 把反射方法适配成方法表调度函数
// 支持的返回值形态：()、(T)、(error)、(T, error)
func buildMethodFunc(m reflect.Method) (types.MethodFunc, bool) {
	mt := m.Type
	numOut := mt.NumOut()
	if numOut > 2 {
		return nil, false
	}
	if numOut == 2 && !mt.Out(1).Implements(errorType) {
		return nil, false
	}
	//第0个入参是接收者
	wantsContext := mt.NumIn() > 1 && mt.In(1) == contextType
	fn := m.Func
	return func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error) {
		in := make([]reflect.Value, 0, mt.NumIn())
		in = append(in, reflect.ValueOf(target))
		if wantsContext {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
		}
		fixed := mt.NumIn() - len(in)
		if mt.IsVariadic() {
			fixed--
			if len(args) < fixed {
				return nil, fmt.Errorf("method %s expects at least %d arguments, got %d", m.Name, fixed, len(args))
			}
		} else if len(args) != fixed {
			return nil, fmt.Errorf("method %s expects %d arguments, got %d", m.Name, fixed, len(args))
		}
		for i, arg := range args {
			paramIndex := len(in)
			var paramType reflect.Type
			if mt.IsVariadic() && paramIndex >= mt.NumIn()-1 {
				paramType = mt.In(mt.NumIn() - 1).Elem()
			} else {
				paramType = mt.In(paramIndex)
			}
			value, err := adaptArgument(m.Name, i, arg, paramType)
			if err != nil {
				return nil, err
			}
			in = append(in, value)
		}
		out := fn.Call(in)
		return splitResults(mt, out)
	}, true
}

func adaptArgument(methodName string, index int, arg interface{}, paramType reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch paramType.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(paramType), nil
		default:
			return reflect.Value{}, fmt.Errorf("method %s argument %d: can not use nil as %s", methodName, index, paramType.String())
		}
	}
	value := reflect.ValueOf(arg)
	if value.Type().AssignableTo(paramType) {
		return value, nil
	}
	if value.Type().ConvertibleTo(paramType) {
		return value.Convert(paramType), nil
	}
	return reflect.Value{}, fmt.Errorf("method %s argument %d: can not use %T as %s", methodName, index, arg, paramType.String())
}

func splitResults(mt reflect.Type, out []reflect.Value) (interface{}, error) {
	switch mt.NumOut() {
	case 0:
		return nil, nil
	case 1:
		if mt.Out(0).Implements(errorType) {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		return out[0].Interface(), asError(out[1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
