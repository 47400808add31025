package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/gocrud/beans/logging"
)

// Service 定时任务托管服务，包装 robfig/cron 调度器。
type Service struct {
	cron   *cron.Cron
	logger logging.Logger
	jobs   map[string]cron.EntryID
	mu     sync.Mutex
}

// ServiceOptions Cron 服务配置选项
type ServiceOptions struct {
	// EnableSeconds 启用秒级精度，默认分钟级
	EnableSeconds bool
}

// NewService 创建 Cron 托管服务
func NewService(logger logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	cronOpts := []cron.Option{
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if opts.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	return &Service{
		cron:   cron.New(cronOpts...),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// AddJob 按 cron 表达式添加定时任务
func (s *Service) AddJob(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Cron job started", logging.Field{Key: "name", Value: name})
		job()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}
	s.jobs[name] = entryID
	s.logger.Info("Cron job registered",
		logging.Field{Key: "name", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

// RemoveJob 移除定时任务
func (s *Service) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// JobCount 返回已登记的任务数量
func (s *Service) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start 启动调度器并阻塞到上下文取消
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Cron service starting",
		logging.Field{Key: "jobs", Value: s.JobCount()})
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 优雅停止调度器，等待运行中的任务完成或超时。
func (s *Service) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Cron service stopped")
	case <-ctx.Done():
		s.logger.Warn("Cron service stop timeout, forcing shutdown")
	}
	return nil
}

// cronLogger 把框架日志接口适配到 cron 库的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
