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

package test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rulego/aop/api/types"
)

// UserService
// 只为测试代理构建，临时创建的目标服务
// 方法覆盖常见的返回值形态
type UserService struct {
	sync.Mutex
	users map[string]string
}

func NewUserService() *UserService {
	return &UserService{users: map[string]string{"1": "lala"}}
}

func (s *UserService) FindUser(ctx context.Context, id string) (string, error) {
	s.Lock()
	defer s.Unlock()
	if name, ok := s.users[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("user not found id=%s", id)
}

func (s *UserService) SaveUser(id string, name string) (string, error) {
	s.Lock()
	defer s.Unlock()
	s.users[id] = name
	return id, nil
}

func (s *UserService) DeleteUser(id string) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user not found id=%s", id)
	}
	delete(s.users, id)
	return nil
}

func (s *UserService) Ping() string {
	return "pong"
}

// Count 当前用户数量
func (s *UserService) Count() int {
	s.Lock()
	defer s.Unlock()
	return len(s.users)
}

// NewUserServiceType 手工构建UserService的服务类型描述符
// 声明 UserCrud 接口和 Auditable 标记接口
func NewUserServiceType() *types.ServiceType {
	serviceType := types.NewServiceType("UserService")
	serviceType.Constructor = func() (interface{}, error) {
		return NewUserService(), nil
	}
	serviceType.AddMethod(types.Method{
		Name: "FindUser",
		Func: func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error) {
			return target.(*UserService).FindUser(ctx, args[0].(string))
		},
	})
	serviceType.AddMethod(types.Method{
		Name: "SaveUser",
		Func: func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error) {
			return target.(*UserService).SaveUser(args[0].(string), args[1].(string))
		},
	})
	serviceType.AddMethod(types.Method{
		Name: "DeleteUser",
		Func: func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error) {
			return nil, target.(*UserService).DeleteUser(args[0].(string))
		},
	})
	serviceType.AddMethod(types.Method{
		Name: "Ping",
		Func: func(ctx context.Context, target interface{}, args []interface{}) (interface{}, error) {
			return target.(*UserService).Ping(), nil
		},
	})
	serviceType.Implement(types.NewServiceInterface("UserCrud", "FindUser", "SaveUser", "DeleteUser"))
	serviceType.Implement(types.NewServiceInterface("Auditable"))
	return serviceType
}

// CallRecorder 线程安全的事件记录器，用于校验advice执行顺序
type CallRecorder struct {
	sync.Mutex
	events []string
}

func (r *CallRecorder) Record(event string) {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, event)
}

func (r *CallRecorder) Events() []string {
	r.Lock()
	defer r.Unlock()
	return append([]string{}, r.events...)
}

func (r *CallRecorder) Reset() {
	r.Lock()
	defer r.Unlock()
	r.events = nil
}

// RecordingListener 记录代理配置生命周期事件
type RecordingListener struct {
	activated     int32
	adviceChanged int32
}

func (l *RecordingListener) Activated(advised types.Advised) {
	atomic.AddInt32(&l.activated, 1)
}

func (l *RecordingListener) AdviceChanged(advised types.Advised) {
	atomic.AddInt32(&l.adviceChanged, 1)
}

func (l *RecordingListener) ActivatedCount() int32 {
	return atomic.LoadInt32(&l.activated)
}

func (l *RecordingListener) AdviceChangedCount() int32 {
	return atomic.LoadInt32(&l.adviceChanged)
}
