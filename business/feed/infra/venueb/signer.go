package venueb

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"
	"strconv"
	"time"
)

// HMACSigner implements Signer with venue B's timestamped, URL-encoded,
// HMAC-SHA256 REST signing scheme: sign the full query string, send the
// key separately via the X-MBX-APIKEY header (original_source/api_auth.py's
// BinanceApiAuth).
type HMACSigner struct {
	Key    string
	Secret string
}

// Sign implements Signer.
func (s HMACSigner) Sign(params map[string]string) (signedQuery string, apiKeyHeader string) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	encoded := q.Encode()

	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(encoded))
	signature := hex.EncodeToString(mac.Sum(nil))

	return encoded + "&signature=" + signature, s.Key
}

// credentialsFile is the on-disk shape of a venue-B credentials file:
// {"id": "...", "secret": "..."} (original_source/api_auth.py's ApiAuth).
type credentialsFile struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// LoadSigner reads venue-B API credentials from a JSON file and returns a
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
