package venuea

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"testing"
)

func TestHMACSigner_Sign_IsDeterministicAcrossCalls(t *testing.T) {
	signer := HMACSigner{Key: "key-1", Secret: "secret-1"}

	params1 := map[string]string{"symbol": "XBTUSD", "side": "Buy", "qty": "100"}
	params2 := map[string]string{"symbol": "XBTUSD", "side": "Buy", "qty": "100"}

	signed1 := signer.Sign(params1)
	signed2 := signer.Sign(params2)

	if signed1["api_key"] != "key-1" {
		t.Errorf("api_key = %q, want %q", signed1["api_key"], "key-1")
	}
	if signed1["sign"] == "" || signed2["sign"] == "" {
		t.Fatal("expected a non-empty signature")
	}
	// Timestamps differ across the two calls, so signatures are not equal,
	// but both must independently verify against their own timestamp.
	for _, signed := range []map[string]string{signed1, signed2} {
		if !verifySignature(t, signer.Secret, signed) {
			t.Errorf("signature did not verify: %+v", signed)
		}
	}
}

func TestHMACSigner_Sign_KeyOrderDoesNotAffectSignature(t *testing.T) {
	signer := HMACSigner{Key: "key-1", Secret: "secret-1"}

	// Two maps with the same content but built in different insertion
	// order must still produce a verifiable signature, since Sign sorts
	// keys before encoding.
	a := map[string]string{}
	a["symbol"] = "XBTUSD"
	a["side"] = "Buy"
	a["price"] = "100.5"

	b := map[string]string{}
	b["price"] = "100.5"
	b["side"] = "Buy"
	b["symbol"] = "XBTUSD"

	signedA := signer.Sign(a)
	signedB := signer.Sign(b)

	if !verifySignature(t, signer.Secret, signedA) {
		t.Errorf("signature A did not verify")
	}
	if !verifySignature(t, signer.Secret, signedB) {
		t.Errorf("signature B did not verify")
	}
}

// verifySignature recomputes the HMAC the same way Sign does, to confirm
// the signed params are internally consistent.
func verifySignature(t *testing.T, secret string, signed map[string]string) bool {
	t.Helper()
	sign := signed["sign"]

	q := url.Values{}
	for k, v := range signed {
		if k == "sign" {
			continue
		}
		q.Set(k, v)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(q.Encode()))
	want := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(sign), []byte(want))
}
