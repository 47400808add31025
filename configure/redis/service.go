package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options Redis 客户端配置选项
type Options struct {
	Name         string
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *Options {
	return &Options{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("redis client name is required")
	}
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// ClientFactory Redis 客户端工厂。
// 按名字惰性创建客户端，首次取用时建立连接并探活。
type ClientFactory struct {
	options map[string]Options
	clients map[string]*redis.Client
	mu      sync.Mutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory(opts ...Options) *ClientFactory {
	f := &ClientFactory{
		options: make(map[string]Options, len(opts)),
		clients: make(map[string]*redis.Client),
	}
	for _, o := range opts {
		f.options[o.Name] = o
	}
	return f
}

// GetOrCreate 返回指定名字的客户端，首次调用时创建并测试连接。
func (f *ClientFactory) GetOrCreate(name string) (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, exists := f.clients[name]; exists {
		return client, nil
	}
	opts, exists := f.options[name]
	if !exists {
		return nil, fmt.Errorf("redis client '%s' is not configured", name)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis '%s': %w", name, err)
	}

	f.clients[name] = client
	return client, nil
}

// Names 返回所有已配置的客户端名
func (f *ClientFactory) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.options))
	for name := range f.options {
		names = append(names, name)
	}
	return names
}

// Close 关闭所有已创建的客户端。容器销毁单例时自动调用。
func (f *ClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*redis.Client)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing redis clients: %v", errs)
	}
	return nil
}
