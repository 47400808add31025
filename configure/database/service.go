package database

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Options 数据库配置选项
type Options struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration

	// AutoMigrate 首次打开连接时自动迁移的模型
	AutoMigrate []any
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *Options {
	return &Options{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil {
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// Factory 数据库工厂，按名字惰性打开 gorm 连接。
type Factory struct {
	options map[string]Options
	dbs     map[string]*gorm.DB
	mu      sync.Mutex
}

// NewFactory 创建数据库工厂
func NewFactory(opts ...Options) *Factory {
	f := &Factory{
		options: make(map[string]Options, len(opts)),
		dbs:     make(map[string]*gorm.DB),
	}
	for _, o := range opts {
		f.options[o.Name] = o
	}
	return f
}

// GetOrCreate 返回指定名字的数据库，首次调用时打开连接并执行迁移。
func (f *Factory) GetOrCreate(name string) (*gorm.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if db, exists := f.dbs[name]; exists {
		return db, nil
	}
	opts, exists := f.options[name]
	if !exists {
		return nil, fmt.Errorf("database '%s' is not configured", name)
	}

	db, err := gorm.Open(opts.Dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			return nil, fmt.Errorf("auto migrate failed for '%s': %w", name, err)
		}
	}

	f.dbs[name] = db
	return db, nil
}

// Each 遍历所有已打开的数据库
func (f *Factory) Each(fn func(name string, db *gorm.DB)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, db := range f.dbs {
		fn(name, db)
	}
}

// Close 关闭所有已打开的连接。容器销毁单例时自动调用。
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, db := range f.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database '%s': %w", name, err))
		}
	}
	f.dbs = make(map[string]*gorm.DB)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing databases: %v", errs)
	}
	return nil
}
