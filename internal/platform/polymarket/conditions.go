// Package polymarket implements the condition-status lookup against the
// Polymarket CLOB REST and WebSocket APIs.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betlinkd/internal/domain"
)

// ConditionClient reads the live status of a linked bet's condition from the
// CLOB REST API. It implements domain.ConditionSource.
type ConditionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewConditionClient creates a ConditionClient.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewConditionClient(baseURL string) *ConditionClient {
	return &ConditionClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetStatus fetches the venue record behind ref and reduces it to a
// ConditionStatus. A 404 means the venue has no record of the reference;
// that is reported as the zero status (nothing remaining, not resolved) so
// validation can reject the reference, rather than as a transport error.
func (c *ConditionClient) GetStatus(ctx context.Context, ref common.Hash) (domain.ConditionStatus, error) {
	url := fmt.Sprintf("%s/live-order/%s", c.baseURL, ref.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: get live order %s: %w", ref.Hex(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ConditionStatus{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: get live order %s: status %d: %s",
			ref.Hex(), resp.StatusCode, string(body))
	}

	var order APILiveOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return domain.ConditionStatus{}, fmt.Errorf("polymarket: decode live order %s: %w", ref.Hex(), err)
	}

	status, err := order.ToConditionStatus()
	if err != nil {
		return domain.ConditionStatus{}, err
	}
	return status, nil
}
