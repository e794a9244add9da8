package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()

	ks, err := NewKeyringStore("testuser")
	require.NoError(t, err)

	want := &Config{
		Credentials: Credentials{ClientID: "id", ClientSecretKey: "key"},
		Token: CachedToken{
			AccessToken: "tok",
			Expiry:      time.Unix(1700000098, 0),
		},
	}
	require.NoError(t, ks.Save(context.Background(), want))

	got, err := ks.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Credentials, got.Credentials)
	assert.Equal(t, want.Token.AccessToken, got.Token.AccessToken)
	assert.True(t, want.Token.Expiry.Equal(got.Token.Expiry))
}

func TestKeyringStoreLoadMissing(t *testing.T) {
	keyring.MockInit()

	ks, err := NewKeyringStore("nobody")
	require.NoError(t, err)

	_, err = ks.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewKeyringStoreEmptyUser(t *testing.T) {
	_, err := NewKeyringStore("")
	assert.Error(t, err)
}
