package storage

import (
	"context"
	"testing"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{name: "bare host keeps flag", raw: "minio:9000", useSSL: true, wantHost: "minio:9000", wantSecure: true},
		{name: "http scheme", raw: "http://minio:9000", useSSL: true, wantHost: "minio:9000"},
		{name: "https scheme", raw: "https://s3.example.com/", wantHost: "s3.example.com", wantSecure: true},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "path not allowed", raw: "http://minio:9000/bucket", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := normaliseEndpoint(tt.raw, tt.useSSL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewMinioIncompleteConfig(t *testing.T) {
	_, err := NewMinio(context.Background(), config.MinioConfig{Endpoint: "minio:9000"})
	assert.Error(t, err)
}
