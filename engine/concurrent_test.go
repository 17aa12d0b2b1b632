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
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

// 并发获取代理只激活一次配置
func TestActivationExactlyOnce(t *testing.T) {
	factory, _ := newUserFactory(t)
	listener := &test.RecordingListener{}
	factory.AddListener(listener)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proxy, err := factory.GetProxy()
			assert.Nil(t, err)
			assert.NotNil(t, proxy)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), listener.ActivatedCount())
	assert.True(t, factory.IsActive())
}

func TestConcurrentInvocations(t *testing.T) {
	factory, _ := newUserFactory(t)
	var adviceHits int32
	assert.Nil(t, factory.AddAdvice(types.NewBeforeAdvice(func(inv types.Invocation) error {
		atomic.AddInt32(&adviceHits, 1)
		return nil
	})))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	const workers = 16
	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				result, err := proxy.Invoke(context.Background(), "Ping")
				assert.Nil(t, err)
				assert.Equal(t, "pong", result)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(workers*rounds), atomic.LoadInt32(&adviceHits))
}

// 调用与结构变更并发进行：每次调用要么看到旧链要么看到新链，不会崩溃
func TestMutateWhileInvoking(t *testing.T) {
	var saves int32
	factory, err := NewProxyFactory("", auditDsl("stress"), WithConfig(auditConfig(&saves)))
	assert.Nil(t, err)
	assert.Nil(t, factory.SetTarget(test.NewUserServiceType(), test.NewUserService()))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				result, err := proxy.Invoke(context.Background(), "Ping")
				assert.Nil(t, err)
				assert.Equal(t, "pong", result)
			}
		}()
	}

	//结构变更与重载交替进行
	for i := 0; i < 100; i++ {
		advisor := noopBeforeAdvisor(i)
		assert.Nil(t, factory.AddAdvisor(advisor))
		assert.Nil(t, factory.RemoveAdvisor(advisor))
		if i%10 == 0 {
			assert.Nil(t, factory.Reload())
		}
	}
	close(stop)
	wg.Wait()
}

// 进行中的调用继续使用进入时的链快照
func TestSnapshotIsolationMidFlight(t *testing.T) {
	factory, _ := newUserFactory(t)
	entered := make(chan struct{})
	release := make(chan struct{})

	oldMark := types.NewAdvisor(0, nil, types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		close(entered)
		<-release
		result, err := inv.Proceed()
		if err != nil {
			return nil, err
		}
		return result.(string) + ":old", nil
	})))
	assert.Nil(t, factory.AddAdvisor(oldMark))

	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	results := make(chan string, 1)
	go func() {
		result, err := proxy.Invoke(context.Background(), "Ping")
		assert.Nil(t, err)
		results <- result.(string)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("invocation did not reach the chain")
	}

	//调用进行中替换advisor列表
	newMark := types.NewAdvisor(0, nil, types.NewAroundAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		result, err := inv.Proceed()
		if err != nil {
			return nil, err
		}
		return result.(string) + ":new", nil
	})))
	assert.Nil(t, factory.SetAdvisors(newMark))

	close(release)
	select {
	case result := <-results:
		assert.Equal(t, "pong:old", result)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight invocation did not complete")
	}

	//后续调用使用新链
	result, err := proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong:new", result)
}

// 结构变更后的下一次调用立刻看到新advice
func TestAdviceChangeVisibleToNextInvocation(t *testing.T) {
	factory, _ := newUserFactory(t)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	result, err := proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "pong", result)

	assert.Nil(t, factory.AddAdvice(types.InterceptorFunc(func(inv types.Invocation) (interface{}, error) {
		result, err := inv.Proceed()
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(result.(string)), nil
	})))

	result, err = proxy.Invoke(context.Background(), "Ping")
	assert.Nil(t, err)
	assert.Equal(t, "PONG", result)
}
