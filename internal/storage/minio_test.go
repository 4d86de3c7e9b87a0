package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

func TestParseURL(t *testing.T) {
	b, p, err := ParseURL("s3://models/deployments/")
	require.NoError(t, err)
	assert.Equal(t, "models", b)
	assert.Equal(t, "deployments", p)

	b, p, err = ParseURL("s3://models")
	require.NoError(t, err)
	assert.Equal(t, "models", b)
	assert.Equal(t, "", p)

	for _, bad := range []string{"http://x/y", "s3:///nobucket", "::"} {
		_, _, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

// fakeS3 serves path-style GETs from an in-memory object map.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPackage(t *testing.T) {
	srv := fakeS3(t, map[string]string{"models/deploy/llm_deployment_package.zip": "PKzip"})
	src, err := NewMinioSource(MinioConfig{
		URL:       "s3://models/deploy",
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "ak",
		SecretKey: "sk",
		Region:    "us-east-1",
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Equal(t, "deploy/llm_deployment_package.zip", src.ObjectName("llm"))

	var buf bytes.Buffer
	require.NoError(t, src.FetchPackage(context.Background(), "llm", &buf))
	assert.Equal(t, "PKzip", buf.String())

	err = src.FetchPackage(context.Background(), "missing", &buf)
	assert.ErrorIs(t, err, deploy.ErrModelNotFound)
}

func TestNewMinioSourceRequiresEndpoint(t *testing.T) {
	_, err := NewMinioSource(MinioConfig{URL: "s3://models"})
	assert.Error(t, err)
}
