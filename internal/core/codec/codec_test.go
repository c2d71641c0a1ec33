package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestXChaCha_RoundTrip(t *testing.T) {
	ring, err := NewKeyring(KindXChaCha, testKeyHex)
	require.NoError(t, err)

	sealed, err := ring.Seal("Ada Lovelace")
	require.NoError(t, err)
	require.NotContains(t, sealed, "Ada")

	again, err := ring.Seal("Ada Lovelace")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "random nonce must make ciphertexts differ")

	plain, err := ring.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", plain)
}

func TestXChaCha_WrongKeyFails(t *testing.T) {
	ring, err := NewKeyring(KindXChaCha, testKeyHex)
	require.NoError(t, err)
	sealed, err := ring.Seal("secret")
	require.NoError(t, err)

	other := WithCodec(XChaCha{}, make([]byte, chacha20poly1305.KeySize))
	_, err = other.Open(sealed)
	require.ErrorIs(t, err, ErrCiphertext)
}

func TestXChaCha_MalformedCiphertext(t *testing.T) {
	ring, err := NewKeyring(KindXChaCha, testKeyHex)
	require.NoError(t, err)

	_, err = ring.Open("not base64!")
	require.ErrorIs(t, err, ErrCiphertext)

	_, err = ring.Open("c2hvcnQ=")
	require.ErrorIs(t, err, ErrCiphertext)
}

func TestNewKeyring_Validation(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		key     string
		wantErr string
	}{
		{name: "identity needs no key", kind: KindIdentity},
		{name: "empty kind is identity", kind: ""},
		{name: "non hex key", kind: KindXChaCha, key: "zz", wantErr: "not hex"},
		{name: "short key", kind: KindXChaCha, key: "0011", wantErr: "must be 32 bytes"},
		{name: "unknown kind", kind: "rot13", wantErr: "unsupported codec kind"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewKeyring(tc.kind, tc.key)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.wantErr), err.Error())
		})
	}
}

func TestIdentity_PassThrough(t *testing.T) {
	ring, err := NewKeyring(KindIdentity, "")
	require.NoError(t, err)

	sealed, err := ring.Seal("plain")
	require.NoError(t, err)
	require.Equal(t, "plain", sealed)
}
