package xspan

import (
	"sync"
	"sync/atomic"
)

// Observer 监听 span 的开始与结束。
//
// 回调在请求路径上同步执行，实现必须并发安全且不应阻塞。
// OnStop 被调用时 span 已不可变，可以安全读取全部字段。
type Observer interface {
	OnStart(span *Span)
	OnStop(span *Span)
}

type registration struct {
	id  uint64
	obs Observer
}

type registrySnapshot struct {
	entries   []registration
	observers []Observer
}

// Registry 进程级观察者注册表。
//
// 读多写少：注册/注销时加锁并复制整个列表（copy-on-write），
// 请求路径上的读取只做一次原子加载，没有锁竞争。
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	snap   atomic.Pointer[registrySnapshot]
}

// NewRegistry 创建空注册表。
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&registrySnapshot{})
	return r
}

// Register 注册观察者，返回注销函数（可重复调用）。nil 观察者被忽略。
func (r *Registry) Register(o Observer) (unregister func()) {
	if o == nil {
		return func() {}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	old := r.snap.Load()
	entries := make([]registration, 0, len(old.entries)+1)
	entries = append(entries, old.entries...)
	entries = append(entries, registration{id: id, obs: o})
	r.snap.Store(newSnapshot(entries))

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	entries := make([]registration, 0, len(old.entries))
	for _, e := range old.entries {
		if e.id != id {
			entries = append(entries, e)
		}
	}
	r.snap.Store(newSnapshot(entries))
}

func newSnapshot(entries []registration) *registrySnapshot {
	observers := make([]Observer, len(entries))
	for i, e := range entries {
		observers[i] = e.obs
	}
	return &registrySnapshot{entries: entries, observers: observers}
}

// Observers 返回当前观察者快照。返回的切片只读。
func (r *Registry) Observers() []Observer {
	return r.snap.Load().observers
}

// HasObservers 是否至少有一个观察者。
func (r *Registry) HasObservers() bool {
	return len(r.snap.Load().observers) > 0
}

var defaultRegistry = NewRegistry()

// DefaultRegistry 返回进程级默认注册表。
func DefaultRegistry() *Registry { return defaultRegistry }

// Register 向默认注册表注册观察者。
func Register(o Observer) (unregister func()) { return defaultRegistry.Register(o) }
