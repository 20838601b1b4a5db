package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"hop.computer/relist/pkg/list"
	"hop.computer/relist/pkg/list/offset"
	"hop.computer/relist/pkg/region"
)

// Client talks to a Server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) endpoint(parts ...string) string {
	u := c.BaseURL
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "agent: %s %s", req.Method, req.URL)
	}
	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		res.Body.Close()
		err := errors.Errorf("agent: %s %s: %s: %s", req.Method, req.URL, res.Status, bytes.TrimSpace(msg))
		switch res.StatusCode {
		case http.StatusNotFound:
			err = errors.Wrap(ErrNoImage, err.Error())
		case http.StatusInsufficientStorage:
			err = errors.Wrap(list.ErrOutOfMemory, err.Error())
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return errors.Wrap(json.NewDecoder(res.Body).Decode(out), "agent: decode")
}

// List returns the served images.
func (c *Client) List(ctx context.Context) ([]ImageDescription, error) {
	var out ImageListResponse
	if err := c.getJSON(ctx, c.endpoint("images"), &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// Fetch downloads the named image. The returned region is verified to hold a
// list at its root.
func (c *Client) Fetch(ctx context.Context, name string) (*region.Region, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("images", name), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	r, err := region.Read(res.Body)
	if err != nil {
		return nil, err
	}
	l, err := offset.Attach[int64](r, r.Root())
	if err != nil {
		return nil, err
	}
	if etag := res.Header.Get("ETag"); etag != "" && etag != `"`+Digest(l.Values())+`"` {
		return nil, errors.Errorf("agent: %s: digest mismatch", name)
	}
	return r, nil
}

// Values returns the values of the named image.
func (c *Client) Values(ctx context.Context, name string) (*ValuesResponse, error) {
	var out ValuesResponse
	if err := c.getJSON(ctx, c.endpoint("images", name, "values"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Push appends values to the named image and returns its new length.
func (c *Client) Push(ctx context.Context, name string, values []int64) (int, error) {
	body, err := json.Marshal(&PushRequest{Values: values})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("images", name, "values"), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	var out PushResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, errors.Wrap(err, "agent: decode")
	}
	return out.Len, nil
}
