// Package assets talks to the remote binary-asset host. Uploads are keyed
// by a freshly generated UUID; deletion takes the same public IDs back.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Asset struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

type uploadResponse struct {
	PublicID string `json:"public_id"`
	URL      string `json:"secure_url"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload sends one file to the asset host and returns its public reference.
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (Asset, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	publicID := uuid.NewString()
	if err := mw.WriteField("public_id", publicID); err != nil {
		return Asset{}, fmt.Errorf("write field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return Asset{}, fmt.Errorf("write file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Asset{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return Asset{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("asset host request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Asset{}, fmt.Errorf("asset host returned status %d: %s", resp.StatusCode, b)
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Asset{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.URL == "" {
		return Asset{}, errors.New("asset host returned empty url")
	}
	return Asset{PublicID: result.PublicID, URL: result.URL}, nil
}

// UploadAll uploads files in order; the first failure aborts the batch.
func (c *Client) UploadAll(ctx context.Context, filenames, contentTypes []string, files [][]byte) ([]Asset, error) {
	out := make([]Asset, 0, len(files))
	for i, data := range files {
		a, err := c.Upload(ctx, filenames[i], contentTypes[i], data)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Delete removes the given public IDs from the asset host.
func (c *Client) Delete(ctx context.Context, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string][]string{"public_ids": publicIDs})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/delete", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asset host request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset host returned status %d", resp.StatusCode)
	}
	return nil
}
