package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscon "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/effective-security/toolgate/store"
)

func Test_RedisStore(t *testing.T) {
	ctx := context.Background()
	redisContainer, err := rediscon.Run(ctx, "redis:7",
		testcontainers.WithConfigModifier(func(config *container.Config) {
			config.Env = []string{
				"ALLOW_EMPTY_PASSWORD=yes",
				"REDIS_PASSWORD=redis",
				"REDIS_TLS_PORT=16379",
			}
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, redisContainer.Terminate(ctx))
	})

	state, err := redisContainer.State(ctx)
	require.NoError(t, err)
	require.True(t, state.Running)

	prefix := fmt.Sprintf("test-%d", time.Now().Unix())

	host, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	options, err := redis.ParseURL(host)
	require.NoError(t, err)

	client := redis.NewClient(options)
	rs := client.Ping(ctx)
	require.NoError(t, rs.Err(), "failed to connect to Redis")

	st := store.NewRedisStore(client, prefix)

	token, err := st.Token(ctx, "github")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, st.SetToken(ctx, "github", "tok-gh"))
	require.NoError(t, st.SetToken(ctx, "jira", "tok-jira"))

	token, err = st.Token(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "tok-gh", token)

	// tokens are namespaced by prefix
	raw, err := client.Get(ctx, prefix+"/tokens/github").Result()
	require.NoError(t, err)
	assert.Equal(t, "tok-gh", raw)

	require.NoError(t, st.SetToken(ctx, "github", "tok-gh-2"))
	token, err = st.Token(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, "tok-gh-2", token)

	require.NoError(t, st.DeleteToken(ctx, "github"))
	token, err = st.Token(ctx, "github")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = st.Token(ctx, "jira")
	require.NoError(t, err)
	assert.Equal(t, "tok-jira", token)

	require.NoError(t, st.DeleteToken(ctx, "missing"))
}
