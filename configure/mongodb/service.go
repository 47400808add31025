package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Options MongoDB 客户端配置选项
type Options struct {
	Name        string
	Uri         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *Options {
	return &Options{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	return nil
}

// Factory MongoDB 客户端工厂，按名字惰性建立连接。
type Factory struct {
	options map[string]Options
	clients map[string]*mongo.Client
	mu      sync.Mutex
}

// NewFactory 创建客户端工厂
func NewFactory(opts ...Options) *Factory {
	f := &Factory{
		options: make(map[string]Options, len(opts)),
		clients: make(map[string]*mongo.Client),
	}
	for _, o := range opts {
		f.options[o.Name] = o
	}
	return f
}

// GetOrCreate 返回指定名字的客户端，首次调用时连接并探活。
func (f *Factory) GetOrCreate(name string) (*mongo.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, exists := f.clients[name]; exists {
		return client, nil
	}
	opts, exists := f.options[name]
	if !exists {
		return nil, fmt.Errorf("mongo client '%s' is not configured", name)
	}

	clientOpts := options.Client().ApplyURI(opts.Uri)
	if opts.Username != "" || opts.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client '%s': %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to connect to mongo '%s': %w", name, err)
	}

	f.clients[name] = client
	return client, nil
}

// Close 断开所有已建立的连接。容器销毁单例时自动调用。
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect mongo client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*mongo.Client)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing mongo clients: %v", errs)
	}
	return nil
}
