package xspan

import (
	"fmt"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// Kind 表示 span 类型。
type Kind int

const (
	// KindInternal 表示进程内操作。
	KindInternal Kind = iota
	// KindServer 表示服务端处理入站请求。
	KindServer
	// KindClient 表示客户端发出的调用。
	KindClient
	// KindProducer 表示消息生产。
	KindProducer
	// KindConsumer 表示消息消费。
	KindConsumer
)

// String 返回小写名称，用作指标标签。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindProducer:
		return "producer"
	case KindConsumer:
		return "consumer"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 表示 span 结果状态。
type Status int

const (
	// StatusUnset 未设置（视为成功）。
	StatusUnset Status = iota
	// StatusError 失败。
	StatusError
)

// String 返回状态名称。
func (s Status) String() string {
	if s == StatusError {
		return "error"
	}
	return "unset"
}

// 标准 tag 名称。
const (
	TagErrorType      = "error.type"
	TagErrorMessage   = "error.message"
	TagLegacyParentID = "legacy.parent_id"
	TagCorrelationID  = "correlation.id"
)

// Span 一次工作单元的内存记录。
//
// Start 之后可以通过 AddTag / SetError 修改，Stop 之后不可变。
// 所有方法对 nil 接收者安全：关闭 span 创建或没有观察者时，
// Tracer.Start 返回 nil，调用方无需判断。
type Span struct {
	tracer    *Tracer
	observers []Observer
	parent    *Span
	kind      Kind
	tc        xtrace.TraceContext
	start     time.Time
	stopped   atomic.Bool

	mu        sync.Mutex
	name      string
	end       time.Time
	tags      map[string]string
	status    Status
	statusMsg string
}

// Name 返回 span 名称。
func (s *Span) Name() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName 修改 span 名称（例如路由匹配后才能得到模板名）。Stop 之后无效。
func (s *Span) SetName(name string) {
	if s == nil || name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return
	}
	s.name = name
}

// Kind 返回 span 类型。
func (s *Span) Kind() Kind {
	if s == nil {
		return KindInternal
	}
	return s.kind
}

// Context 返回 span 的追踪上下文。
func (s *Span) Context() xtrace.TraceContext {
	if s == nil {
		return xtrace.TraceContext{}
	}
	return s.tc
}

// Parent 返回同进程内的父 span；父级是远程上下文或根 span 时返回 nil。
func (s *Span) Parent() *Span {
	if s == nil {
		return nil
	}
	return s.parent
}

// StartTime 返回开始时间。
func (s *Span) StartTime() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.start
}

// EndTime 返回结束时间，未结束时为零值。
func (s *Span) EndTime() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

// Duration 返回耗时，未结束时为 0。
func (s *Span) Duration() time.Duration {
	end := s.EndTime()
	if end.IsZero() {
		return 0
	}
	return end.Sub(s.start)
}

// Ended Stop 之后返回 true。
func (s *Span) Ended() bool {
	return s != nil && s.stopped.Load()
}

// Tags 返回 tag 的副本。
func (s *Span) Tags() map[string]string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.tags)
}

// Tag 返回单个 tag。
func (s *Span) Tag(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.tags[key]
	return v, ok
}

// Status 返回状态及描述。
func (s *Span) Status() (Status, string) {
	if s == nil {
		return StatusUnset, ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusMsg
}

// AddTag 添加或覆盖 tag。空 key 与 Stop 之后的调用被忽略。
func (s *Span) AddTag(key, value string) {
	if s == nil || key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return
	}
	if s.tags == nil {
		s.tags = make(map[string]string, 4)
	}
	s.tags[key] = value
}

// SetError 记录错误类型与消息，并将状态置为 StatusError。err 为 nil 时不做任何事。
func (s *Span) SetError(err error) {
	if s == nil || err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return
	}
	if s.tags == nil {
		s.tags = make(map[string]string, 4)
	}
	s.tags[TagErrorType] = fmt.Sprintf("%T", err)
	s.tags[TagErrorMessage] = err.Error()
	s.status = StatusError
	s.statusMsg = err.Error()
}

// SetErrorStatus 在没有 error 值的情况下标记失败（如 HTTP 5xx）。
func (s *Span) SetErrorStatus(description string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return
	}
	s.status = StatusError
	if s.statusMsg == "" {
		s.statusMsg = description
	}
}

// Stop 结束 span：记录结束时间并通知观察者。
//
// 幂等，重复调用只生效一次。Stop 之后 Current 会越过该 span 返回其父级，
// 相当于从"当前 span"槽位弹出。
func (s *Span) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.stopped.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	s.end = s.tracer.now()
	s.mu.Unlock()

	for _, o := range s.observers {
		o.OnStop(s)
	}
}
