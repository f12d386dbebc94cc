package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase58(t *testing.T) {
	decoded, err := DecodeBase58("StV1DL6CwTryKyV")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), decoded)
}

func TestDecodeBase58_LeadingZeros(t *testing.T) {
	decoded, err := DecodeBase58("11")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, decoded)
}

func TestDecodeBase58_InvalidCharacter(t *testing.T) {
	_, err := DecodeBase58("0OIl")
	assert.Error(t, err)
}

func TestDecodeBase58_Empty(t *testing.T) {
	_, err := DecodeBase58("")
	assert.Error(t, err)
}
