package venuea

import (
	"encoding/json"
	"os"
)

// credentialsFile is the on-disk shape of a venue-A credentials file:
// {"id": "...", "secret": "..."} (original_source/api_auth.py's ApiAuth).
type credentialsFile struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// LoadCredentials reads venue-A API credentials from a JSON file.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, err
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return Credentials{}, err
	}
	return Credentials{Key: cf.ID, Secret: cf.Secret}, nil
}
