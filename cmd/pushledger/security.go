package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"pushledger/internal/constants"
	"pushledger/internal/errors"
)

// verifySignature authenticates the request against the shared secret and
// returns the raw body bytes the signature covered. The expected signature is
// the hex HMAC-SHA256 of the exact wire payload, so the body must be read
// before any JSON decoding. Oversized bodies are rejected outright rather
// than truncated, so a correctly signed delivery never fails as a signature
// mismatch just for being too big. Comparison is constant-time.
func verifySignature(w http.ResponseWriter, r *http.Request, secretKey string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return nil, errors.NewPayloadTooLargeError(maxBytesErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	signatureHeader := r.Header.Get(constants.SignatureHeader)
	if signatureHeader == "" {
		return nil, errors.NewAuthError("missing signature header")
	}

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(body)
	computedSignatureHex := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computedSignatureHex), []byte(signatureHeader)) {
		return nil, errors.NewAuthError("signature mismatch")
	}

	return body, nil
}
