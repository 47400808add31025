package container

import (
	"sync"

	"github.com/gocrud/beans/logging"
)

// Event 容器事件。具体事件类型由发布方定义，监听器自行断言。
type Event any

// EventListener 容器事件监听器。
// 实现此接口的单例组件在创建时会被自动登记到事件多播器。
type EventListener interface {
	OnEvent(event Event)
}

// RefreshedEvent 容器刷新完成后发布
type RefreshedEvent struct {
	Context *ApplicationContext
}

// StartedEvent 托管服务全部启动后发布
type StartedEvent struct {
	Context *ApplicationContext
}

// StoppedEvent 容器停止后发布
type StoppedEvent struct {
	Context *ApplicationContext
}

// eventMulticaster 把事件分发给所有已登记的监听器。
// 监听器按登记顺序同步调用。
type eventMulticaster struct {
	listeners []EventListener
	logger    logging.Logger
	mu        sync.RWMutex
}

func newEventMulticaster(logger logging.Logger) *eventMulticaster {
	return &eventMulticaster{logger: logger}
}

// AddListener 登记监听器，重复登记只生效一次。
func (m *eventMulticaster) AddListener(listener EventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.listeners {
		if existing == listener {
			return
		}
	}
	m.listeners = append(m.listeners, listener)
}

// ListenerCount 返回已登记的监听器数量
func (m *eventMulticaster) ListenerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

// Multicast 同步分发事件
func (m *eventMulticaster) Multicast(event Event) {
	m.mu.RLock()
	snapshot := append([]EventListener(nil), m.listeners...)
	m.mu.RUnlock()
	for _, listener := range snapshot {
		listener.OnEvent(event)
	}
}
