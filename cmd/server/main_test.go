package main

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker/internal/config"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConfigureLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		want    logrus.Level
		json    bool
		wantErr bool
	}{
		{name: "text info", level: "info", format: "text", want: logrus.InfoLevel},
		{name: "json debug", level: "debug", format: "JSON", want: logrus.DebugLevel, json: true},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			cfg.Log.Level = tt.level
			cfg.Log.Format = tt.format

			logger := quietLogger()
			err := configureLogger(logger, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.json, isJSON)
		})
	}
}

func TestBuildTokenIssuer(t *testing.T) {
	var cfg config.Config
	cfg.Auth.TokenTTLMinutes = 5

	// Without a configured secret a random one is generated per process.
	issuer, err := buildTokenIssuer(cfg, quietLogger())
	require.NoError(t, err)
	token, _, err := issuer.Issue(7)
	require.NoError(t, err)
	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	cfg.Auth.JWTSecret = "shared"
	a, err := buildTokenIssuer(cfg, quietLogger())
	require.NoError(t, err)
	b, err := buildTokenIssuer(cfg, quietLogger())
	require.NoError(t, err)
	token, _, err = a.Issue(3)
	require.NoError(t, err)
	id, err = b.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestBuildStorageDisabledWithoutBucket(t *testing.T) {
	var cfg config.Config
	svc, err := buildStorage(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestBuildStorageWithEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	var cfg config.Config
	cfg.Storage.Bucket = "exports"
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.Endpoint = "http://127.0.0.1:9000"

	svc, err := buildStorage(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
