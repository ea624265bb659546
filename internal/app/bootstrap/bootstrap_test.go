package bootstrap

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/orch-console/internal/config"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.New("error"), false))
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), false))
}

func TestBuildRedisClientVerifyFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{RedisAddr: addr}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.New("error"), true))
}

func TestBuildSessionStoreRequiresConfig(t *testing.T) {
	_, err := BuildSessionStore(context.Background(), nil, logging.New("error"))
	require.Error(t, err)
}

func TestBuildSessionStoreMemoryDefault(t *testing.T) {
	cfg := &appconfig.Config{SessionStore: "memory", SessionTTL: time.Hour}
	backend, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	assert.Equal(t, "memory", backend.Kind)
	assert.Nil(t, backend.Health)
	_, ok := backend.Store.(*session.MemoryStore)
	assert.True(t, ok)
}

func TestBuildSessionStoreRedisWithoutAddrFallsBack(t *testing.T) {
	cfg := &appconfig.Config{SessionStore: "redis", SessionTTL: time.Hour}
	backend, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	assert.Equal(t, "memory", backend.Kind)
}

func TestBuildSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{SessionStore: "redis", RedisAddr: mr.Addr(), SessionTTL: time.Hour}

	backend, err := BuildSessionStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	assert.Equal(t, "redis", backend.Kind)
	require.NotNil(t, backend.Health)
	assert.NoError(t, backend.Health(context.Background()))

	st := session.New("")
	require.NoError(t, backend.Store.Save(context.Background(), st))
	got, err := backend.Store.Get(context.Background(), st.Key)
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, got.SessionID)
}

func TestBuildURLResolverPresignsAgainstEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
		S3PresignTTL:        5 * time.Minute,
	}
	resolver, err := BuildURLResolver(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)

	signed, err := resolver.Resolve(context.Background(), "s3://reports/labs/cbc.pdf")
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "localhost:4566", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/reports/labs/cbc.pdf"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestBuildURLResolverRequiresConfig(t *testing.T) {
	_, err := BuildURLResolver(context.Background(), nil, logging.New("error"))
	require.Error(t, err)
}
