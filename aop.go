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

// Package aop provides a lightweight, high-performance, embedded, component-based
// interception framework: it builds proxy objects that run ordered cross-cutting
// advice chains around target method calls.
//
// # Usage
//
// Declare cross-cutting concerns as advisors in a proxy definition and attach it
// to any target object, with support for dynamic modification. Proxy definition format:
//
//	{
//	  "proxy": {
//	    "id": "proxy01"
//	  },
//	  "advisors": [
//	  ]
//	}
//
// advisors: configure advice components. You can use built-in components and
// third-party extension components without writing any code.
//
// pointcut: configure which methods each advisor intercepts. Determines the
// interception scope.
//
// Example:
//
//	var proxyFile = `
//	{
//	  "proxy": {
//	    "id": "proxy01",
//	    "name": "userServiceProxy"
//	  },
//	  "advisors": [
//	    {
//	      "id": "a1",
//	      "type": "before",
//	      "name": "check args",
//	      "order": 1,
//	      "pointcut": "Save*",
//	      "configuration": {
//	        "handler": "checkUser"
//	      }
//	    },
//	    {
//	      "id": "a2",
//	      "type": "limiter",
//	      "name": "protect",
//	      "order": 2,
//	      "configuration": {
//	        "max": 100
//	      }
//	    }
//	  ]
//	}
//	`
//
// Create Proxy Factory Instance
//
//	config := aop.NewConfig()
//	config.RegisterUdf("checkUser", func(inv types.Invocation) error {
//		return nil
//	})
//	factory, err := aop.New("proxy01", []byte(proxyFile), aop.WithConfig(config))
//
// Attach Target And Create Proxy
//
//	err = factory.SetTarget(serviceType, &UserService{})
//	proxy, err := factory.GetProxy()
//
// Invoke Through The Proxy
//
//	result, err := proxy.Invoke(context.Background(), "SaveUser", user)
//
// Update Proxy Definition
//
//	err := factory.ReloadSelf([]byte(proxyFile))
//
// Load All Proxy Definitions
//
//	err := aop.Load("./proxies")
//
// Get Factory Instance
//
//	factory, ok := aop.Get("proxy01")
package aop

import (
	"strings"
	"sync"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/fs"
)

// DefaultPool is the default proxy factory pool.
// DefaultPool 默认代理工厂实例池。
var DefaultPool = &FactoryPool{}

// FactoryPool 代理工厂实例池
type FactoryPool struct {
	factories sync.Map
}

// Ensuring FactoryPool implements types.ProxyFactoryPool interface.
var _ types.ProxyFactoryPool = (*FactoryPool)(nil)

// Load 加载指定文件夹及其子文件夹所有代理定义（以.json结尾的文件），到代理工厂实例池
// 工厂ID，使用代理定义文件配置的 proxy.id
func (g *FactoryPool) Load(folderPath string, opts ...types.ProxyFactoryOption) error {
	if !strings.HasSuffix(folderPath, "*.json") && !strings.HasSuffix(folderPath, "*.JSON") {
		if strings.HasSuffix(folderPath, "/") || strings.HasSuffix(folderPath, "\\") {
			folderPath = folderPath + "*.json"
		} else if folderPath == "" {
			folderPath = "./*.json"
		} else {
			folderPath = folderPath + "/*.json"
		}
	}
	paths, err := fs.GetFilePaths(folderPath)
	if err != nil {
		return err
	}
	for _, path := range paths {
		b := fs.LoadFile(path)
		if b != nil {
			if _, err = g.New("", b, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}

// New 创建一个新的ProxyFactory并将其存储到代理工厂实例池
// 如果指定id="",则使用代理定义文件的 proxy.id
func (g *FactoryPool) New(id string, def []byte, opts ...types.ProxyFactoryOption) (types.ProxyFactory, error) {
	if v, ok := g.factories.Load(id); ok {
		return v.(types.ProxyFactory), nil
	} else {
		if factory, err := engine.NewProxyFactory(id, def, opts...); err != nil {
			return nil, err
		} else {
			if factory.Id() != "" {
				// Store the new ProxyFactory in the factories map with the Id as the key.
				g.factories.Store(factory.Id(), factory)
			}
			return factory, err
		}
	}
}

// Get 获取指定ID代理工厂实例
func (g *FactoryPool) Get(id string) (types.ProxyFactory, bool) {
	v, ok := g.factories.Load(id)
	if ok {
		return v.(types.ProxyFactory), ok
	} else {
		return nil, false
	}
}

// Del 删除指定ID代理工厂实例
func (g *FactoryPool) Del(id string) {
	v, ok := g.factories.Load(id)
	if ok {
		v.(types.ProxyFactory).Stop()
		g.factories.Delete(id)
	}
}

// Stop 释放所有代理工厂实例
func (g *FactoryPool) Stop() {
	g.factories.Range(func(key, value any) bool {
		if item, ok := value.(types.ProxyFactory); ok {
			item.Stop()
		}
		g.factories.Delete(key)
		return true
	})
}

// Reload 重新加载所有代理工厂实例
func (g *FactoryPool) Reload(opts ...types.ProxyFactoryOption) {
	g.factories.Range(func(key, value any) bool {
		if item, ok := value.(types.ProxyFactory); ok {
			_ = item.Reload(opts...)
		}
		return true
	})
}

// Range 遍历所有代理工厂实例
func (g *FactoryPool) Range(f func(key, value any) bool) {
	g.factories.Range(f)
}

// Load 加载指定文件夹及其子文件夹所有代理定义（以.json结尾的文件），到代理工厂实例池
// 工厂ID，使用代理定义文件配置的 proxy.id
func Load(folderPath string, opts ...types.ProxyFactoryOption) error {
	return DefaultPool.Load(folderPath, opts...)
}

// New 创建一个新的ProxyFactory并将其存储到代理工厂实例池
func New(id string, def []byte, opts ...types.ProxyFactoryOption) (types.ProxyFactory, error) {
	return DefaultPool.New(id, def, opts...)
}

// Get 获取指定ID代理工厂实例
func Get(id string) (types.ProxyFactory, bool) {
	return DefaultPool.Get(id)
}

// Del 删除指定ID代理工厂实例
func Del(id string) {
	DefaultPool.Del(id)
}

// Stop 释放所有代理工厂实例
func Stop() {
	DefaultPool.Stop()
}

// Reload 重新加载所有代理工厂实例
func Reload(opts ...types.ProxyFactoryOption) {
	DefaultPool.Reload(opts...)
}

// Range 遍历所有代理工厂实例
func Range(f func(key, value any) bool) {
	DefaultPool.Range(f)
}
