package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"testing"

	"pushledger/internal/constants"
	"pushledger/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureValid(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"message_id":"m1"}`)

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", signBody(secret, body))

	got, err := verifySignature(httptest.NewRecorder(), req, secret)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	// Body must still be readable by downstream handlers.
	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, body, rest)
}

func TestVerifySignatureDeterministic(t *testing.T) {
	secret := "test-secret"
	body := []byte("payload")
	assert.Equal(t, signBody(secret, body), signBody(secret, body))
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader([]byte("{}")))

	_, err := verifySignature(httptest.NewRecorder(), req, "test-secret")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.GetCode(err))
}

func TestVerifySignatureMismatch(t *testing.T) {
	body := []byte(`{"message_id":"m1"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"wrong secret", signBody("other-secret", body)},
		{"garbage", "not-a-signature"},
		{"wrong length", "abcd"},
		{"empty but present", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
			req.Header.Set("X-Signature", tt.signature)

			_, err := verifySignature(httptest.NewRecorder(), req, "test-secret")
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeAuthentication, errors.GetCode(err))
		})
	}
}

func TestVerifySignatureOversizedBody(t *testing.T) {
	secret := "test-secret"
	body := bytes.Repeat([]byte("a"), constants.MaxWebhookBodyBytes+1)

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature", signBody(secret, body))

	// Correctly signed but over the limit: a size rejection, never a
	// signature mismatch against a truncated body.
	_, err := verifySignature(httptest.NewRecorder(), req, secret)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePayloadTooLarge, errors.GetCode(err))
}

func TestVerifySignatureBodyByteFlip(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"message_id":"m1"}`)
	signature := signBody(secret, body)

	// A signature over the original body must not validate any mutation.
	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01

		req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(mutated))
		req.Header.Set("X-Signature", signature)

		_, err := verifySignature(httptest.NewRecorder(), req, secret)
		assert.Error(t, err, "byte flip at index %d must invalidate signature", i)
	}
}
