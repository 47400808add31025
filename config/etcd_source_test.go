package config

import (
	"testing"
	"time"
)

func TestDefaultEtcdOptions(t *testing.T) {
	opts := NewDefaultEtcdOptions()
	if len(opts.Endpoints) != 1 || opts.Endpoints[0] != "localhost:2379" {
		t.Errorf("unexpected default endpoints %v", opts.Endpoints)
	}
	if opts.DialTimeout != 5*time.Second || opts.Timeout != 5*time.Second {
		t.Errorf("unexpected default timeouts %v, %v", opts.DialTimeout, opts.Timeout)
	}

	custom := NewDefaultEtcdOptions("etcd1:2379", "etcd2:2379")
	if len(custom.Endpoints) != 2 {
		t.Errorf("explicit endpoints must be kept, got %v", custom.Endpoints)
	}
}

func TestEtcdSourceName(t *testing.T) {
	source := &EtcdSource{Options: NewDefaultEtcdOptions()}
	if source.Name() == "" {
		t.Error("source must report a diagnostic name")
	}
}
