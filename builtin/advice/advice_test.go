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
	"sync/atomic"

	"github.com/rulego/aop/api/types"
)

// fakeInvocation 直接驱动advice拦截器的调用替身，Proceed委托给proceed函数
type fakeInvocation struct {
	ctx         context.Context
	serviceType *types.ServiceType
	method      *types.Method
	args        []interface{}
	attrs       map[string]interface{}
	proceed     func() (interface{}, error)
	proceeded   int32
}

func newFakeInvocation(methodName string, proceed func() (interface{}, error), args ...interface{}) *fakeInvocation {
	serviceType := types.NewServiceType("UserService")
	serviceType.AddMethod(types.Method{Name: methodName})
	method, _ := serviceType.Method(methodName)
	return &fakeInvocation{
		ctx:         context.Background(),
		serviceType: serviceType,
		method:      method,
		args:        args,
		proceed:     proceed,
	}
}

func (f *fakeInvocation) ID() string {
	return "test"
}

func (f *fakeInvocation) Context() context.Context {
	return f.ctx
}

func (f *fakeInvocation) TargetType() *types.ServiceType {
	return f.serviceType
}

func (f *fakeInvocation) Method() *types.Method {
	return f.method
}

func (f *fakeInvocation) Arguments() []interface{} {
	return f.args
}

func (f *fakeInvocation) SetArguments(args ...interface{}) {
	f.args = args
}

func (f *fakeInvocation) Target() interface{} {
	return nil
}

func (f *fakeInvocation) Proxy() types.Proxy {
	return nil
}

func (f *fakeInvocation) Proceed() (interface{}, error) {
	atomic.AddInt32(&f.proceeded, 1)
	if f.proceed == nil {
		return nil, nil
	}
	return f.proceed()
}

func (f *fakeInvocation) ProceedCount() int32 {
	return atomic.LoadInt32(&f.proceeded)
}

func (f *fakeInvocation) SetAttribute(key string, value interface{}) {
	if f.attrs == nil {
		f.attrs = make(map[string]interface{})
	}
	f.attrs[key] = value
}

func (f *fakeInvocation) GetAttribute(key string) (interface{}, bool) {
	v, ok := f.attrs[key]
	return v, ok
}
