// Package venuea dispatches signed new-order/amend/cancel REST requests to
// venue A's private order endpoints.
package venuea

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"
)

// HMACSigner implements venue A's private order-signing scheme: a sorted,
// URL-encoded parameter string is HMAC-SHA256 signed and the digest is
// appended back onto the JSON body as "sign" (original_source/api_auth.py's
// BybitApiAuth signs params the same way for its other private endpoints;
// the order create/replace body is a direct extrapolation of that
// pattern).
type HMACSigner struct {
	Key    string
	Secret string
}

// Sign mutates and returns params with "api_key", "timestamp", and "sign"
// added. Keys are sorted before encoding so the signature is deterministic
// regardless of Go's randomized map iteration order.
func (s HMACSigner) Sign(params map[string]string) map[string]string {
	params["api_key"] = s.Key
	params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Set(k, params[k])
	}
	message := q.Encode()

	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(message))
	params["sign"] = hex.EncodeToString(mac.Sum(nil))
	return params
}

// credentialsFile is the on-disk shape of a venue-A credentials file:
// {"id": "...", "secret": "..."} (original_source/api_auth.py's ApiAuth).
type credentialsFile struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// LoadSigner reads venue-A API credentials from a JSON file and returns a
// ready-to-use HMACSigner.
func LoadSigner(path string) (HMACSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HMACSigner{}, err
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return HMACSigner{}, err
	}
	return HMACSigner{Key: cf.ID, Secret: cf.Secret}, nil
}
