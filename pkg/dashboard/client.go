package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"liyu1981.xyz/iot-pressure-service/pkg/iot"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

// Client reads the query API. It never writes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) query(ctx context.Context, action string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %d: %s", action, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", action, err)
	}
	return nil
}

func (c *Client) LatestData(ctx context.Context) ([]models.Reading, error) {
	var readings []models.Reading
	if err := c.query(ctx, string(iot.ActionLatestData), nil, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

func (c *Client) Alerts(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := c.query(ctx, string(iot.ActionAlerts), nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *Client) DeviceStatus(ctx context.Context, deviceID string) (*iot.DeviceStatus, error) {
	var status iot.DeviceStatus
	if err := c.query(ctx, string(iot.ActionDeviceStatus), url.Values{"device_id": {deviceID}}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Trend(ctx context.Context, deviceID string, limit int) (*iot.TrendReport, error) {
	params := url.Values{"device_id": {deviceID}}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	var report iot.TrendReport
	if err := c.query(ctx, string(iot.ActionTrend), params, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
