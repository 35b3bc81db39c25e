package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Result is the image host's upload response.
type Result struct {
	URL          string    `json:"url"`
	SecureURL    string    `json:"secure_url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `json:"format"`
	ResourceType string    `json:"resource_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Client talks to the external image host (a cloudinary-style
// upload endpoint).
type Client struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

func NewClient(uploadURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) Upload(ctx context.Context, fileName string, file io.Reader) (*Result, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "uploadClient.upload")
	span.SetAttributes(attribute.String("file.name", fileName))
	defer span.End()

	var body bytes.Buffer
	formWriter := multipart.NewWriter(&body)
	filePart, err := formWriter.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := formWriter.WriteField("resource_type", "auto"); err != nil {
		return nil, fmt.Errorf("write resource type field: %w", err)
	}
	if err := formWriter.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", formWriter.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("upload image: %s", err))
		return nil, fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, fmt.Sprintf("image host status %d", resp.StatusCode))
		return nil, fmt.Errorf("image host returned status %d: %s", resp.StatusCode, respBytes)
	}

	var result Result
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("unmarshal upload response: %w", err)
	}
	return &result, nil
}
