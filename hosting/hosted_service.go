package hosting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gocrud/beans/logging"
)

// HostedService 托管服务接口。
// 容器会自动在 goroutine 中调用 Start，服务自身无需再开 goroutine。
type HostedService interface {
	// Start 启动服务。此方法允许阻塞，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑。Start 的 context 取消时服务应自动退出，
	// Stop 用于额外的清理工作，必须尊重 ctx 的超时。
	Stop(ctx context.Context) error
}

// Manager 托管服务管理器，负责并发启动和停止一组托管服务。
type Manager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewManager 创建托管服务管理器
func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{logger: logger}
}

// Add 添加托管服务
func (m *Manager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// Count 返回已登记的服务数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 在独立 goroutine 中启动所有托管服务。
// 返回的通道会收到首个非取消类的启动错误，容量等于服务数量，不会阻塞发送方。
func (m *Manager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info("Starting hosted services",
		logging.Field{Key: "count", Value: len(m.services)})

	for _, service := range m.services {
		m.wg.Add(1)
		go func(svc HostedService) {
			defer m.wg.Done()
			if err := svc.Start(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				m.logger.Error("Hosted service failed",
					logging.Field{Key: "error", Value: err.Error()})
				select {
				case errCh <- err:
				default:
				}
			}
		}(service)
	}
	return errCh
}

// StopAll 并发停止所有托管服务，与启动顺序相反。
// 单个服务的停止失败只记日志，不中断其余服务的停止。
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("Stopping hosted services",
		logging.Field{Key: "count", Value: len(m.services)})

	var wg sync.WaitGroup
	for i := len(m.services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(svc HostedService) {
			defer wg.Done()
			if err := svc.Stop(ctx); err != nil {
				m.logger.Error("Failed to stop hosted service",
					logging.Field{Key: "error", Value: err.Error()})
			}
		}(m.services[i])
	}
	wg.Wait()
	return nil
}

// Wait 等待所有服务的 Start goroutine 退出
func (m *Manager) Wait() {
	m.wg.Wait()
}

// TimedService 按固定间隔执行任务的托管服务。
type TimedService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   logging.Logger
}

// NewTimedService 创建定时托管服务
func NewTimedService(name string, interval time.Duration,
	task func(ctx context.Context) error, logger logging.Logger) *TimedService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &TimedService{name: name, interval: interval, task: task, logger: logger}
}

func (s *TimedService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("Timed task failed",
					logging.Field{Key: "name", Value: s.name},
					logging.Field{Key: "error", Value: err.Error()})
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *TimedService) Stop(ctx context.Context) error {
	return nil
}

// FuncService 把一个阻塞函数适配成托管服务。
type FuncService struct {
	task func(ctx context.Context) error
}

// NewFuncService 创建函数式托管服务
func NewFuncService(task func(ctx context.Context) error) *FuncService {
	return &FuncService{task: task}
}

func (f *FuncService) Start(ctx context.Context) error {
	return f.task(ctx)
}

func (f *FuncService) Stop(ctx context.Context) error {
	return nil
}
