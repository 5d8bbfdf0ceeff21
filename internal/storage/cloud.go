package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// CloudStore uploads objects to a Cloudinary-compatible raw upload
// endpoint as private assets. Only the signed secure URL in the
// response is ever handed out.
type CloudStore struct {
	http      *resty.Client
	cloudName string
	apiKey    string
	apiSecret string
}

// NewCloudStore builds a private raw-asset uploader.
func NewCloudStore(cloudName, apiKey, apiSecret string) *CloudStore {
	httpClient := resty.New().
		SetBaseURL(fmt.Sprintf("https://api.cloudinary.com/v1_1/%s", cloudName)).
		SetTimeout(30 * time.Second)

	return &CloudStore{
		http:      httpClient,
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts data as a private raw asset and returns the secure URL.
func (s *CloudStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Signature covers the signed params sorted by name, per the API.
	toSign := fmt.Sprintf("overwrite=true&public_id=%s&timestamp=%s&type=private%s", key, timestamp, s.apiSecret)
	digest := sha1.Sum([]byte(toSign))

	var result uploadResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetFileReader("file", key, bytes.NewReader(data)).
		SetFormData(map[string]string{
			"public_id": key,
			"timestamp": timestamp,
			"type":      "private",
			"overwrite": "true",
			"api_key":   s.apiKey,
			"signature": hex.EncodeToString(digest[:]),
		}).
		SetResult(&result).
		Post("/raw/upload")
	if err != nil {
		return "", fmt.Errorf("storage upload failed: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("storage upload error: %s (status %d)", result.Error.Message, resp.StatusCode())
		}
		return "", fmt.Errorf("storage upload error: status %d", resp.StatusCode())
	}

	if result.SecureURL == "" {
		return "", fmt.Errorf("storage upload returned no secure URL")
	}

	return result.SecureURL, nil
}
