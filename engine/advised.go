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
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/utils/runtime"
)

// configState holds one immutable view of a proxy configuration for atomic
// access, avoiding lock contention on the hot invocation path.
// configState 保存代理配置的一份不可变视图以供原子访问，避免热调用路径上的锁竞争。
type configState struct {
	// advisors is the advisor list in registration order. Never mutated
	// after publication.
	// advisors 是按注册顺序排列的 Advisor 列表。发布后不再修改。
	advisors types.AdvisorList
	// revision identifies the structural generation this view was built from
	// revision 标识构建此视图时的结构版本
	revision uint64
	// targetSource supplies target instances for invocations
	// targetSource 为调用提供目标实例
	targetSource types.TargetSource
	// interfaces are the declared proxyable interfaces
	// interfaces 是声明的可代理接口
	interfaces []*types.ServiceInterface

	exposeProxy   bool
	frozen        bool
	preFiltered   bool
	forceSubclass bool
	opaque        bool
}

// chainEntry is one cached per-method interceptor chain, tagged with the
// revision it was built from.
type chainEntry struct {
	revision uint64
	chain    []types.Interceptor
}

// listenerEntry tracks one registered ProxyListener. activatedFired is
// guarded by the owning AdvisedSupport's notify mutex.
type listenerEntry struct {
	listener       types.ProxyListener
	activatedFired bool
}

// AdvisedSupport is the mutable configuration a proxy is built from and keeps
// observing afterwards: the target source, the declared interfaces, the
// ordered advisor list and the proxying options. It is the single shared
// state behind every proxy created from one factory.
//
// AdvisedSupport 是构建代理所依据、且代理之后持续观察的可变配置：
// 目标源、声明的接口、有序的 Advisor 列表以及代理选项。
// 它是同一工厂创建的所有代理背后唯一的共享状态。
//
// Lifecycle:
// 生命周期：
//  1. Building: mutators change the configuration freely, unobserved
//     构建期：可自由修改配置，不触发通知
//  2. First proxy request activates the configuration exactly once
//     首次请求代理时恰好激活一次
//  3. Active: every structural mutation notifies listeners synchronously
//     激活后：每次结构变更都同步通知监听器
//
// Thread Safety:
// 线程安全：
//
//	Structural mutation is serialized by an internal mutex and published as
//	an immutable snapshot via atomic pointer operations. Invocations read
//	the snapshot without locking and keep the chain they started with even
//	if the configuration changes mid-flight.
//
//	结构变更由内部互斥锁串行化，并通过原子指针操作发布为不可变快照。
//	调用无锁读取快照；即使配置在执行途中变更，进行中的调用仍保留其启动时的链。
type AdvisedSupport struct {
	// Config is the shared factory configuration containing the logger,
	// the adapter registry and execution parameters.
	// Config 是共享的工厂配置，包含日志器、适配器注册表和执行参数。
	Config types.Config

	// mu serializes structural mutation and the activation transition
	// mu 串行化结构变更与激活转换
	mu sync.Mutex

	// notifyMu serializes listener fan-out so notification order matches
	// mutation order
	// notifyMu 串行化监听器广播，使通知顺序与变更顺序一致
	notifyMu sync.Mutex

	// statePtr provides high-performance atomic access to the current
	// configuration view
	// statePtr 提供对当前配置视图的高性能原子访问
	statePtr unsafe.Pointer

	// active is the one-way Building(0) to Active(1) flag
	// active 是单向的 Building(0) 到 Active(1) 标志
	active int32

	// listeners are the registered lifecycle observers, in registration order
	// listeners 是按注册顺序排列的生命周期观察者
	listeners []*listenerEntry

	// chainFactory assembles per-method interceptor chains
	chainFactory ChainFactory

	chainMu sync.RWMutex
	chains  map[string]*chainEntry

	// master copy, guarded by mu; snapshots are derived from these fields
	advisors      []types.Advisor
	targetSource  types.TargetSource
	interfaces    []*types.ServiceInterface
	exposeProxy   bool
	frozen        bool
	preFiltered   bool
	forceSubclass bool
	opaque        bool
	revision      uint64

	// exposedInterfaces remembers the interface names the most recent
	// interface-based proxy exposed, for re-proxy compatibility checks.
	exposedInterfaces []string
}

var _ types.Advised = (*AdvisedSupport)(nil)

// NewAdvisedSupport creates an empty configuration bound to the given shared config.
func NewAdvisedSupport(config types.Config) *AdvisedSupport {
	s := &AdvisedSupport{
		Config:       config,
		chainFactory: &DefaultChainFactory{},
		chains:       make(map[string]*chainEntry),
	}
	s.publishLocked()
	return s
}

// state returns the current immutable configuration view.
func (s *AdvisedSupport) state() *configState {
	ptr := atomic.LoadPointer(&s.statePtr)
	if ptr == nil {
		return &configState{}
	}
	return (*configState)(ptr)
}

// publishLocked derives a fresh snapshot from the master fields and publishes
// it atomically. Callers must hold mu.
func (s *AdvisedSupport) publishLocked() {
	state := &configState{
		advisors:      append(types.AdvisorList(nil), s.advisors...),
		revision:      s.revision,
		targetSource:  s.targetSource,
		interfaces:    append([]*types.ServiceInterface(nil), s.interfaces...),
		exposeProxy:   s.exposeProxy,
		frozen:        s.frozen,
		preFiltered:   s.preFiltered,
		forceSubclass: s.forceSubclass,
		opaque:        s.opaque,
	}
	atomic.StorePointer(&s.statePtr, unsafe.Pointer(state))
}

// bumpLocked records a structural mutation: the revision advances, the new
// snapshot is published and every cached chain is dropped. Callers must hold mu.
func (s *AdvisedSupport) bumpLocked() {
	s.revision++
	s.publishLocked()
	s.chainMu.Lock()
	s.chains = make(map[string]*chainEntry)
	s.chainMu.Unlock()
}

// checkFrozenLocked returns ErrConfigFrozen context for the given operation
// when the configuration is frozen. Callers must hold mu.
func (s *AdvisedSupport) checkFrozenLocked(op string) error {
	if s.frozen {
		return fmt.Errorf("%w: %s", types.ErrConfigFrozen, op)
	}
	return nil
}

// Advisors returns a copy of the current advisor list in registration order.
func (s *AdvisedSupport) Advisors() types.AdvisorList {
	return s.state().advisors.Copy()
}

// AdvisorCount returns the number of registered advisors.
func (s *AdvisedSupport) AdvisorCount() int {
	return len(s.state().advisors)
}

// TargetSource returns the configured target source, or nil.
func (s *AdvisedSupport) TargetSource() types.TargetSource {
	return s.state().targetSource
}

// Interfaces returns the declared proxyable interfaces.
func (s *AdvisedSupport) Interfaces() []*types.ServiceInterface {
	return s.state().interfaces
}

// IsActive reports whether the configuration has produced a proxy.
func (s *AdvisedSupport) IsActive() bool {
	return atomic.LoadInt32(&s.active) == 1
}

// IsFrozen reports whether structural mutation is disallowed.
func (s *AdvisedSupport) IsFrozen() bool {
	return s.state().frozen
}

// Revision returns the structural revision counter.
func (s *AdvisedSupport) Revision() uint64 {
	return s.state().revision
}

// IsExposeProxy reports whether invocations publish the proxy into their context.
func (s *AdvisedSupport) IsExposeProxy() bool {
	return s.state().exposeProxy
}

// IsPreFiltered reports whether advisors are assumed pre-matched to the target type.
func (s *AdvisedSupport) IsPreFiltered() bool {
	return s.state().preFiltered
}

// IsProxyTargetType reports whether subclass-based proxying is forced.
func (s *AdvisedSupport) IsProxyTargetType() bool {
	return s.state().forceSubclass
}

// IsOpaque reports whether proxies hide their configuration from callers.
func (s *AdvisedSupport) IsOpaque() bool {
	return s.state().opaque
}

// TargetType returns the descriptor of the configured target type, or nil
// when no target source is set.
func (s *AdvisedSupport) TargetType() *types.ServiceType {
	if ts := s.state().targetSource; ts != nil {
		return ts.TargetType()
	}
	return nil
}

// SetExposeProxy controls whether invocations can retrieve their proxy via
// CurrentProxy. Allowed any time; does not notify listeners.
func (s *AdvisedSupport) SetExposeProxy(expose bool) {
	s.mu.Lock()
	s.exposeProxy = expose
	s.publishLocked()
	s.mu.Unlock()
}

// SetPreFiltered marks the advisor list as already filtered for the target
// type, skipping the class-level pointcut check during chain assembly.
func (s *AdvisedSupport) SetPreFiltered(preFiltered bool) {
	s.mu.Lock()
	s.preFiltered = preFiltered
	s.publishLocked()
	s.mu.Unlock()
}

// SetProxyTargetType forces subclass-based proxying regardless of declared
// interfaces.
func (s *AdvisedSupport) SetProxyTargetType(force bool) {
	s.mu.Lock()
	s.forceSubclass = force
	s.publishLocked()
	s.mu.Unlock()
}

// SetOpaque controls whether proxies hide their configuration.
func (s *AdvisedSupport) SetOpaque(opaque bool) {
	s.mu.Lock()
	s.opaque = opaque
	s.publishLocked()
	s.mu.Unlock()
}

// SetFrozen freezes or unfreezes the configuration. Freezing is allowed at
// any time and is not a structural mutation: caches and listeners are untouched.
func (s *AdvisedSupport) SetFrozen(frozen bool) {
	s.mu.Lock()
	s.frozen = frozen
	s.publishLocked()
	s.mu.Unlock()
}

// SetChainFactory replaces the chain assembly strategy.
func (s *AdvisedSupport) SetChainFactory(factory ChainFactory) {
	if factory == nil {
		return
	}
	s.mu.Lock()
	s.chainFactory = factory
	s.bumpLocked()
	s.mu.Unlock()
}

// SetTargetSource sets the supplier of target instances.
func (s *AdvisedSupport) SetTargetSource(targetSource types.TargetSource) error {
	s.mu.Lock()
	if err := s.checkFrozenLocked("set target source"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.targetSource = targetSource
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// SetTarget wraps the instance in a singleton target source and installs it.
func (s *AdvisedSupport) SetTarget(serviceType *types.ServiceType, instance interface{}) error {
	return s.SetTargetSource(target.NewSingletonSource(serviceType, instance))
}

// AddInterface declares an additional proxyable interface.
func (s *AdvisedSupport) AddInterface(serviceInterface *types.ServiceInterface) error {
	if serviceInterface == nil {
		return fmt.Errorf("interface must not be nil")
	}
	s.mu.Lock()
	if err := s.checkFrozenLocked("add interface"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.interfaces = append(s.interfaces, serviceInterface)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// SetInterfaces replaces the declared interface list.
func (s *AdvisedSupport) SetInterfaces(interfaces ...*types.ServiceInterface) error {
	s.mu.Lock()
	if err := s.checkFrozenLocked("set interfaces"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.interfaces = append([]*types.ServiceInterface(nil), interfaces...)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// AddAdvisor appends an advisor to the end of the list.
func (s *AdvisedSupport) AddAdvisor(advisor types.Advisor) error {
	if advisor == nil {
		return fmt.Errorf("advisor must not be nil")
	}
	s.mu.Lock()
	if err := s.checkFrozenLocked("add advisor"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.advisors = append(s.advisors, advisor)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// SetAdvisors replaces the whole advisor list in one step. Listeners observe
// a single change regardless of how many advisors differ.
func (s *AdvisedSupport) SetAdvisors(advisors ...types.Advisor) error {
	for _, advisor := range advisors {
		if advisor == nil {
			return fmt.Errorf("advisor must not be nil")
		}
	}
	s.mu.Lock()
	if err := s.checkFrozenLocked("set advisors"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.advisors = append(types.AdvisorList{}, advisors...)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// AddAdvisorAt inserts an advisor at the given position in registration order.
func (s *AdvisedSupport) AddAdvisorAt(pos int, advisor types.Advisor) error {
	if advisor == nil {
		return fmt.Errorf("advisor must not be nil")
	}
	s.mu.Lock()
	if err := s.checkFrozenLocked("add advisor"); err != nil {
		s.mu.Unlock()
		return err
	}
	if pos < 0 || pos > len(s.advisors) {
		s.mu.Unlock()
		return fmt.Errorf("advisor position %d out of range [0, %d]", pos, len(s.advisors))
	}
	s.advisors = append(s.advisors, nil)
	copy(s.advisors[pos+1:], s.advisors[pos:])
	s.advisors[pos] = advisor
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// RemoveAdvisorAt removes the advisor at the given position.
func (s *AdvisedSupport) RemoveAdvisorAt(pos int) error {
	s.mu.Lock()
	if err := s.checkFrozenLocked("remove advisor"); err != nil {
		s.mu.Unlock()
		return err
	}
	if pos < 0 || pos >= len(s.advisors) {
		s.mu.Unlock()
		return fmt.Errorf("advisor position %d out of range [0, %d)", pos, len(s.advisors))
	}
	s.advisors = append(s.advisors[:pos], s.advisors[pos+1:]...)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// RemoveAdvisor removes the first advisor identical to the given one. Removing
// an advisor that is not registered is a no-op and does not notify listeners.
func (s *AdvisedSupport) RemoveAdvisor(advisor types.Advisor) error {
	s.mu.Lock()
	if err := s.checkFrozenLocked("remove advisor"); err != nil {
		s.mu.Unlock()
		return err
	}
	index := -1
	for i, item := range s.advisors {
		if item == advisor {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return nil
	}
	s.advisors = append(s.advisors[:index], s.advisors[index+1:]...)
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return nil
}

// ReplaceAdvisor swaps the first occurrence of old for new, keeping its
// position. Returns false if old is not registered.
func (s *AdvisedSupport) ReplaceAdvisor(old types.Advisor, new types.Advisor) (bool, error) {
	if new == nil {
		return false, fmt.Errorf("advisor must not be nil")
	}
	s.mu.Lock()
	if err := s.checkFrozenLocked("replace advisor"); err != nil {
		s.mu.Unlock()
		return false, err
	}
	index := -1
	for i, item := range s.advisors {
		if item == old {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.advisors[index] = new
	s.bumpLocked()
	entries, active := s.listenerEntriesLocked()
	s.mu.Unlock()
	if active {
		s.fireAdviceChanged(entries)
	}
	return true, nil
}

// AddAdvice resolves any supported advice object through the adapter registry
// and appends the resulting advisor. Resolution failure leaves the advisor
// list unchanged.
func (s *AdvisedSupport) AddAdvice(advice interface{}) error {
	advisor, err := s.adapterRegistry().Wrap(advice)
	if err != nil {
		return err
	}
	return s.AddAdvisor(advisor)
}

// adapterRegistry returns the configured adapter registry, falling back to
// the shared default. Configurations with StrictAdapterMatch resolve through
// the registry's strict view when it offers one.
func (s *AdvisedSupport) adapterRegistry() types.AdapterRegistry {
	registry := s.Config.AdapterRegistry
	if registry == nil {
		registry = Registry
	}
	if s.Config.StrictAdapterMatch {
		if strictable, ok := registry.(interface{ Strict() types.AdapterRegistry }); ok {
			return strictable.Strict()
		}
	}
	return registry
}

// AddListener registers a lifecycle observer. A listener registered after
// activation receives Activated immediately, exactly once.
func (s *AdvisedSupport) AddListener(listener types.ProxyListener) {
	if listener == nil {
		return
	}
	entry := &listenerEntry{listener: listener}
	s.mu.Lock()
	s.listeners = append(s.listeners, entry)
	active := s.IsActive()
	s.mu.Unlock()
	if active {
		s.fireActivated([]*listenerEntry{entry})
	}
}

// RemoveListener unregisters a lifecycle observer.
func (s *AdvisedSupport) RemoveListener(listener types.ProxyListener) {
	s.mu.Lock()
	for i, entry := range s.listeners {
		if entry.listener == listener {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// listenerEntriesLocked returns the current listener entries and whether the
// configuration is active. Callers must hold mu.
func (s *AdvisedSupport) listenerEntriesLocked() ([]*listenerEntry, bool) {
	entries := make([]*listenerEntry, len(s.listeners))
	copy(entries, s.listeners)
	return entries, s.IsActive()
}

// activate performs the one-way Building to Active transition. The first
// caller fires Activated to every registered listener before returning;
// concurrent callers race safely and the transition happens exactly once.
func (s *AdvisedSupport) activate() {
	s.mu.Lock()
	if s.IsActive() {
		s.mu.Unlock()
		return
	}
	atomic.StoreInt32(&s.active, 1)
	entries, _ := s.listenerEntriesLocked()
	s.mu.Unlock()
	s.fireActivated(entries)
}

// fireActivated delivers Activated to each entry that has not received it
// yet. Exactly-once delivery is tracked per entry under the notify mutex.
func (s *AdvisedSupport) fireActivated(entries []*listenerEntry) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, entry := range entries {
		if entry.activatedFired {
			continue
		}
		entry.activatedFired = true
		s.safeNotify(entry.listener.Activated)
	}
}

// fireAdviceChanged delivers AdviceChanged to every entry in registration
// order, before the mutating call returns to its caller.
func (s *AdvisedSupport) fireAdviceChanged(entries []*listenerEntry) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for _, entry := range entries {
		s.safeNotify(entry.listener.AdviceChanged)
	}
}

// safeNotify runs one listener callback, recovering and logging a panic so a
// broken observer never blocks configuration mutation or the remaining listeners.
func (s *AdvisedSupport) safeNotify(fn func(advised types.Advised)) {
	defer func() {
		if e := recover(); e != nil {
			if s.Config.Logger != nil {
				s.Config.Logger.Printf("proxy listener panic: %v\n%s", e, runtime.Stack())
			}
		}
	}()
	fn(s)
}

// rememberExposed records the interface names an interface-based proxy
// exposed, for later re-proxy compatibility checks.
func (s *AdvisedSupport) rememberExposed(names []string) {
	s.mu.Lock()
	s.exposedInterfaces = append([]string(nil), names...)
	s.mu.Unlock()
}

// lastExposed returns the interface names the most recent interface-based
// proxy exposed.
func (s *AdvisedSupport) lastExposed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.exposedInterfaces...)
}

// interceptorsFor returns the interceptor chain for the method, serving from
// the per-method cache when its entry matches the current revision and
// rebuilding otherwise. In-flight invocations keep the chain slice they were
// handed even if a mutation clears the cache afterwards.
func (s *AdvisedSupport) interceptorsFor(serviceType *types.ServiceType, method *types.Method) ([]types.Interceptor, error) {
	state := s.state()
	s.chainMu.RLock()
	entry, ok := s.chains[method.Name]
	s.chainMu.RUnlock()
	if ok && entry.revision == state.revision {
		return entry.chain, nil
	}

	chain, err := s.chainFactory.Chain(state.advisors, state.preFiltered, serviceType, method, s.adapterRegistry())
	if err != nil {
		return nil, err
	}
	s.chainMu.Lock()
	// Another mutation may have run since the snapshot was taken; the entry
	// stays tagged with the revision it was built from, so a stale write is
	// detected and rebuilt on the next lookup.
	s.chains[method.Name] = &chainEntry{revision: state.revision, chain: chain}
	s.chainMu.Unlock()
	return chain, nil
}
