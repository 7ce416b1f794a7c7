// Package profile talks to the platform's profile service. The chat core
// never owns user records; it only resolves display info for rendering.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// Lookup resolves profiles in batches. Implementations must tolerate unknown
// ids by omitting them from the result rather than failing the whole batch.
type Lookup interface {
	Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error)
}

type HTTPLookup struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLookup(baseURL string) *HTTPLookup {
	return &HTTPLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (l *HTTPLookup) Profiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Profile, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Profile{}, nil
	}

	body, err := json.Marshal(map[string][]uuid.UUID{"ids": ids})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/internal/profiles", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Profiles []Profile `json:"profiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("profile lookup: decode: %w", err)
	}

	result := make(map[uuid.UUID]Profile, len(payload.Profiles))
	for _, p := range payload.Profiles {
		result[p.ID] = p
	}
	return result, nil
}
