package natsclient

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortURL/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerURL(t *testing.T) {
	assert.Equal(t, nats.DefaultURL, serverURL(config.NATSConfig{}))
	assert.Equal(t, "nats://broker:4333", serverURL(config.NATSConfig{URL: "nats://broker:4333"}))
}

func TestOptions(t *testing.T) {
	apply := func(opts []nats.Option) nats.Options {
		o := nats.GetDefaultOptions()
		for _, opt := range opts {
			require.NoError(t, opt(&o))
		}
		return o
	}

	anon := apply(options(config.NATSConfig{}, nil))
	assert.Equal(t, clientName, anon.Name)
	assert.Equal(t, defaultConnectTimeout, anon.Timeout)
	assert.Empty(t, anon.User)

	authed := apply(options(config.NATSConfig{User: "svc", Password: "secret"}, nil))
	assert.Equal(t, "svc", authed.User)
	assert.Equal(t, "secret", authed.Password)
}

func TestConnect_Unreachable(t *testing.T) {
	_, _, err := Connect(config.NATSConfig{URL: "nats://127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
