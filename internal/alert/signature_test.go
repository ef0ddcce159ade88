package alert

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platewatch/internal/types"
)

func TestSignPayload(t *testing.T) {
	secret := types.SecretString("webhook-secret")
	payload := []byte(`{"plate":"SXH646"}`)
	now := time.Unix(1760000000, 0)

	sig, err := SignPayload(payload, secret, now)
	require.NoError(t, err)

	// Recompute the expected HMAC the way a receiver would.
	mac := hmac.New(sha256.New, []byte("webhook-secret"))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	want := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(mac.Sum(nil)))

	assert.Equal(t, want, sig)
}

func TestSignPayloadDeterministic(t *testing.T) {
	secret := types.SecretString("s")
	now := time.Unix(1760000000, 0)

	a, err := SignPayload([]byte("body"), secret, now)
	require.NoError(t, err)
	b, err := SignPayload([]byte("body"), secret, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Any change to payload or timestamp changes the signature.
	c, err := SignPayload([]byte("body2"), secret, now)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := SignPayload([]byte("body"), secret, now.Add(time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestSignPayloadEmptySecret(t *testing.T) {
	_, err := SignPayload([]byte("body"), types.SecretString(""), time.Now())
	assert.Error(t, err)
}
