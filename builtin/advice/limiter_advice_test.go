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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test/assert"
)

func TestConcurrencyLimiter(t *testing.T) {
	maxConcurrent := 2
	limiter := NewConcurrencyLimiter(maxConcurrent)
	assert.Equal(t, "limiter", limiter.Type())

	fresh := limiter.New().(*ConcurrencyLimiter)
	assert.Equal(t, int64(100), fresh.Config.Max)

	interceptor := limiter.Advice().Around()

	release := make(chan struct{})
	var wg sync.WaitGroup
	var limited int32
	var mu sync.Mutex

	for i := 0; i < maxConcurrent+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv := newFakeInvocation("Ping", func() (interface{}, error) {
				<-release
				return "pong", nil
			})
			_, err := interceptor.Invoke(inv)
			if err != nil {
				mu.Lock()
				assert.True(t, errors.Is(err, types.ErrConcurrencyLimitReached))
				limited++
				mu.Unlock()
			}
		}()
	}

	//等两个调用进入链内再放行
	for limiter.Current() < int64(maxConcurrent) {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), limited)
	assert.Equal(t, int64(0), limiter.Current())
}

func TestConcurrencyLimiterInit(t *testing.T) {
	limiter := &ConcurrencyLimiter{}
	assert.Nil(t, limiter.Init(types.NewConfig(), types.Configuration{"max": 5}))
	assert.Equal(t, int64(5), limiter.Config.Max)

	//非法上限回退默认值
	limiter = &ConcurrencyLimiter{}
	assert.Nil(t, limiter.Init(types.NewConfig(), types.Configuration{"max": -1}))
	assert.Equal(t, int64(100), limiter.Config.Max)
}
