package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
)

// ImageField is the multipart field carrying the uploaded image.
const ImageField = "image"

type PredictionResponse struct {
	PredictionID string          `json:"predictionId"`
	Result       json.RawMessage `json:"result"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Predict uploads one image for analysis.
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) (*PredictionResponse, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		ImageField, quoteEscaper.Replace(filepath.Base(filename))))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req := &request{
		method:      http.MethodPost,
		path:        PathPredict,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		multipart:   true,
	}
	var resp PredictionResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, &request{method: http.MethodGet, path: path}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PredictionHistory lists the caller's past analyses.
func (c *Client) PredictionHistory(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, PathPredictionHistory)
}

// SensorHistory lists the caller's sensor readings.
func (c *Client) SensorHistory(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, PathSensorHistory)
}

// ListPlants lists the plant knowledge base.
func (c *Client) ListPlants(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, PathPlants)
}

// GetPlant fetches one knowledge-base entry by species.
func (c *Client) GetPlant(ctx context.Context, species string) (json.RawMessage, error) {
	return c.getRaw(ctx, PathPlants+"/"+url.PathEscape(species))
}
