package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"lumenhaus-backend/internal/env"
)

// ErrUploadRejected marks uploads the media host refused (unsupported type,
// oversized file, bad key). Transport failures come back as plain errors so
// callers can tell the two apart.
var ErrUploadRejected = errors.New("media: upload rejected")

// Uploader stores a binary and returns a durable public URL for it.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HTTPUploader posts multipart uploads to the media host configured via env.
type HTTPUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPUploader() *HTTPUploader {
	return NewHTTPUploaderWith(
		env.MustGet(env.MediaUploadURL),
		env.Get(env.MediaUploadKey),
		&http.Client{Timeout: 30 * time.Second},
	)
}

func NewHTTPUploaderWith(endpoint, apiKey string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPUploader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = "upload"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("media: build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("media: read upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("media: finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("media: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	res, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: upload request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		// decoded below
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return "", fmt.Errorf("%w: media host returned %d", ErrUploadRejected, res.StatusCode)
	default:
		return "", fmt.Errorf("media: media host returned %d", res.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("media: decode upload response: %w", err)
	}
	if strings.TrimSpace(parsed.URL) == "" {
		return "", fmt.Errorf("media: upload response missing url")
	}

	return parsed.URL, nil
}
