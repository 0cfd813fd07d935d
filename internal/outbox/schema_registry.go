package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SchemaRegistryClient speaks the small slice of the Confluent Schema
// Registry API the dispatcher needs: look up or register a subject's schema.
type SchemaRegistryClient struct {
	baseURL string
	client  *http.Client
}

func NewSchemaRegistryClient(baseURL string) *SchemaRegistryClient {
	return &SchemaRegistryClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EnsureSchema returns the ID of the subject's latest schema, registering the
// given schema when the subject does not exist yet.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	if id, err := c.fetchLatest(ctx, subject); err == nil {
		return id, nil
	}

	return c.register(ctx, subject, schema)
}

func (c *SchemaRegistryClient) fetchLatest(ctx context.Context, subject string) (int, error) {
	url := fmt.Sprintf("%s/subjects/%s/versions/latest", c.baseURL, subject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("subject %s not registered", subject)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("schema registry lookup: %s", body)
	}

	return decodeSchemaID(resp.Body)
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject string, schema string) (int, error) {
	body, err := json.Marshal(map[string]any{
		"schemaType": "JSON",
		"schema":     schema,
	})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/subjects/%s/versions", c.baseURL, subject)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/vnd.schemaregistry.v1+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("schema registry register: %s", data)
	}

	return decodeSchemaID(resp.Body)
}

func decodeSchemaID(r io.Reader) (int, error) {
	var payload struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.ID, nil
}
