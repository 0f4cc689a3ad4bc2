package nrfcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://api.nrfcloud.com/v1"

// TokenFunc returns the current access token; it is read on every request so
// a token changed in settings applies immediately.
type TokenFunc func(ctx context.Context) (string, error)

type Client struct {
	baseURL string
	token   TokenFunc
	httpc   *http.Client
}

func New(baseURL string, token TokenFunc) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type devicesResp struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
}

type messagesResp struct {
	Items []struct {
		DeviceID   string     `json:"deviceId"`
		ReceivedAt *time.Time `json:"receivedAt,omitempty"`
		Message    struct {
			AppID string `json:"appId"`
			Data  string `json:"data"`
		} `json:"message"`
	} `json:"items"`
}

func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var r devicesResp
	if err := c.get(ctx, "/devices", nil, &r); err != nil {
		return nil, err
	}
	if len(r.Items) == 0 {
		return nil, cloud.ErrNoDevices
	}
	out := make([]models.Device, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, models.Device{ID: it.ID, Name: it.Name})
	}
	return out, nil
}

func (c *Client) GetMessages(ctx context.Context, deviceID string, w cloud.Window) ([]models.Message, error) {
	q := url.Values{}
	q.Set("inclusiveStart", w.Start.UTC().Format(time.RFC3339Nano))
	q.Set("exclusiveEnd", w.End.UTC().Format(time.RFC3339Nano))
	if deviceID != "" {
		q.Set("deviceIdentifiers", deviceID)
	}

	var r messagesResp
	if err := c.get(ctx, "/messages", q, &r); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(r.Items))
	for _, it := range r.Items {
		m := models.NewMessage(it.Message.AppID, it.Message.Data)
		m.DeviceID = it.DeviceID
		m.ReceivedAt = it.ReceivedAt
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, dst any) error {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return errors.Wrap(err, "access token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("nrfcloud unauthorized (%d)", resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("nrfcloud http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}
