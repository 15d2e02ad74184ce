// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validClientConfig() *ClientConfig {
	return newClientConfig(&StructuredConfig{
		App:     App{DataDir: "/var/lib/protocol-sync"},
		Adapter: defaultConfig().Adapter,
		Workers: defaultConfig().Workers,
	})
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ClientConfig)
		wantErr error
	}{
		{name: "valid drive", mutate: func(c *ClientConfig) {}},
		{
			name: "valid s3",
			mutate: func(c *ClientConfig) {
				c.Adapter.Backend = BackendS3
				c.Adapter.S3.Endpoint = "localhost:9000"
				c.Adapter.S3.Bucket = "sync"
			},
		},
		{name: "valid control address", mutate: func(c *ClientConfig) { c.App.ControlAddress = "127.0.0.1:7765" }},
		{name: "bad control address", mutate: func(c *ClientConfig) { c.App.ControlAddress = "7765" }, wantErr: ErrInvalidAppConfigs},
		{name: "no data dir", mutate: func(c *ClientConfig) { c.App.DataDir = "" }, wantErr: ErrInvalidAppConfigs},
		{name: "memory dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = ":memory:" }, wantErr: ErrInvalidStorageConfigs},
		{name: "no identity path", mutate: func(c *ClientConfig) { c.Storage.IdentityPath = "" }, wantErr: ErrInvalidStorageConfigs},
		{name: "zero timeout", mutate: func(c *ClientConfig) { c.Adapter.RequestTimeout = 0 }, wantErr: ErrInvalidAdapterConfigs},
		{name: "drive without address", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "s3 without bucket", mutate: func(c *ClientConfig) { c.Adapter.Backend = BackendS3; c.Adapter.S3.Endpoint = "h:1" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "zero interval", mutate: func(c *ClientConfig) { c.Workers.SyncInterval = 0 }, wantErr: ErrInvalidWorkerConfigs},
		{name: "zero history limit", mutate: func(c *ClientConfig) { c.Workers.HistoryLimit = 0 }, wantErr: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validClientConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
