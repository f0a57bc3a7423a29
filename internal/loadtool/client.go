package loadtool

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	resty "github.com/go-resty/resty/v2"
)

// Wire shapes of the service responses.
type (
	rangeResponse struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}

	entryJSON struct {
		GWNum  int    `json:"gw_num"`
		IsSeed bool   `json:"is_seed"`
		Name   string `json:"name"`
		Rank   int    `json:"rank"`
		Points *int64 `json:"points"`
	}

	guildJSON struct {
		ID   int64       `json:"id"`
		Data []entryJSON `json:"data"`
	}

	searchResponse struct {
		Result []guildJSON `json:"result"`
	}

	boardEntryJSON struct {
		Name   string `json:"name"`
		Rank   int    `json:"rank"`
		Points *int64 `json:"points"`
		ID     int64  `json:"id"`
	}

	fullResponse struct {
		Num  int `json:"num"`
		Data struct {
			Seed    []boardEntryJSON `json:"seed"`
			Regular []boardEntryJSON `json:"regular"`
		} `json:"data"`
	}

	uploadResponse struct {
		Status   string `json:"status"`
		BatchID  string `json:"batch_id"`
		EventNum int    `json:"event_num"`
		Rows     int    `json:"rows"`
	}

	errorResponse struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
)

// Client talks to a running service.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for baseURL. Server errors and rate limits are
// retried a few times.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusBadGateway)
		})
	return &Client{http: c}
}

// Health checks that the metrics endpoint answers.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("healthz: status %d", resp.StatusCode())
	}
	return nil
}

// Range returns the stored event range and false when the store is empty.
func (c *Client) Range(ctx context.Context) (rangeResponse, bool, error) {
	var out rangeResponse
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&errorResponse{}).Get("/range")
	if err != nil {
		return out, false, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return out, false, nil
	}
	if err := check("range", resp); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Upload posts a batch as the next event.
func (c *Client) Upload(ctx context.Context, text string) (uploadResponse, error) {
	var out uploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"data": text}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/upload")
	if err != nil {
		return out, err
	}
	return out, check("upload", resp)
}

// Search runs a name search.
func (c *Client) Search(ctx context.Context, term string) (searchResponse, error) {
	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"search": term}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/search")
	if err != nil {
		return out, err
	}
	return out, check("search", resp)
}

// Full fetches the leaderboard of one event.
func (c *Client) Full(ctx context.Context, num int) (fullResponse, error) {
	var out fullResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/full/" + strconv.Itoa(num))
	if err != nil {
		return out, err
	}
	return out, check("full", resp)
}

func check(op string, resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if e, ok := resp.Error().(*errorResponse); ok && e.Code != "" {
		return fmt.Errorf("%s: status %d: %s: %s %s", op, resp.StatusCode(), e.Code, e.Message, e.Detail)
	}
	return fmt.Errorf("%s: status %d", op, resp.StatusCode())
}
