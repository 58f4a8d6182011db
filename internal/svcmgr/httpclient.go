package svcmgr

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/http2"
)

// HTTPClient is a reference Lookup implementation that calls a long-lived
// local service-manager process over HTTP/2, reusing one connection across
// the many (tsid, sid) lookups a single BAT section can trigger.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client pointed at baseURL (e.g.
// "http://127.0.0.1:9982"). The transport forces HTTP/2 over cleartext
// (h2c) so repeated lookups share one connection instead of reconnecting.
func NewHTTPClient(baseURL string) *HTTPClient {
	tr := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Transport: tr, Timeout: 5 * time.Second},
	}
}

type httpService struct {
	ChannelName string `json:"channel_name"`
	HasChannel  bool   `json:"has_channel"`
}

func (s httpService) Channel() (Channel, bool) {
	if !s.HasChannel {
		return nil, false
	}
	return staticChannel{name: s.ChannelName}, true
}

// FindService implements Lookup by calling GET /service?tsid=&sid=.
func (c *HTTPClient) FindService(tsid, sid uint16) (Service, bool) {
	u := fmt.Sprintf("%s/service?tsid=%s&sid=%s",
		c.baseURL, url.QueryEscape(strconv.Itoa(int(tsid))), url.QueryEscape(strconv.Itoa(int(sid))))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	var svc httpService
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return nil, false
	}
	return svc, true
}
