package l1addr

import (
	"crypto/sha256"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(version byte, hash [20]byte) string {
	payload := append([]byte{version}, hash[:]...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	full := append(payload, second[:4]...)
	return base58.Encode(full)
}

func TestDecodeRoundTrips(t *testing.T) {
	var hash [20]byte
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	addr := encode(0x1e, hash)

	got, err := Decode(addr)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	var hash [20]byte
	addr := encode(0x1e, hash)
	tampered := []byte(addr)
	tampered[0]++

	_, err := Decode(string(tampered))
	assert.Error(t, err)
}
