package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/xhad/giavang/internal/observe"
	"github.com/xhad/giavang/pkg/extractor"
	"github.com/xhad/giavang/pkg/fetcher"
)

const pricePage = `
<html><body>
	<h1>Giá vàng Giao Thủy</h1>
	<table>
		<tr><th>Loại</th><th>Mua vào</th></tr>
		<tr><td>Nhẫn 9999</td><td>15.140.000<br><font>▲50K</font></td></tr>
	</table>
	<table>
		<tr><th>SJC</th><th>Mua vào</th></tr>
		<tr><td>1L</td><td>15.100.000</td></tr>
	</table>
	<p>Cập nhật 08:00</p>
</body></html>`

type stubFetcher struct {
	url  string
	body string
	err  error
}

func (f *stubFetcher) Fetch(context.Context) (string, error) { return f.body, f.err }

func (f *stubFetcher) URL() string { return f.url }

func newTestMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	require.NoError(t, err)
	return m
}

func newTestServer(t *testing.T, f *stubFetcher) *ToolServer {
	t.Helper()
	s, err := NewToolServer(Config{}, f, newTestMetrics(t), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func connect(t *testing.T, s *ToolServer) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewToolServerRequiresFetcher(t *testing.T) {
	_, err := NewToolServer(Config{}, nil, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestListTools(t *testing.T) {
	cs := connect(t, newTestServer(t, &stubFetcher{}))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, ToolName, res.Tools[0].Name)
	assert.Equal(t, ToolDescription, res.Tools[0].Description)
}

func TestCallToolSuccess(t *testing.T) {
	cs := connect(t, newTestServer(t, &stubFetcher{url: "https://example.com", body: pricePage}))

	res := callTool(t, cs)
	assert.False(t, res.IsError)

	text := textOf(t, res)
	assert.Equal(t, extractor.Format(pricePage), text)
	assert.Contains(t, text, "| Nhẫn 9999 | 15.140.000 ▲50K |")
	assert.Contains(t, text, "## "+extractor.SJCTableHeading)
	assert.True(t, strings.HasSuffix(text, extractor.AgentHint))
}

func TestCallToolFetchErrorIsText(t *testing.T) {
	cs := connect(t, newTestServer(t, &stubFetcher{
		url: "https://example.com/gia-vang",
		err: errors.New("dial tcp: connection refused"),
	}))

	res := callTool(t, cs)
	assert.False(t, res.IsError)
	assert.Equal(t,
		"Lỗi khi tải dữ liệu từ https://example.com/gia-vang: dial tcp: connection refused",
		textOf(t, res))
}

func TestGoldPriceFallback(t *testing.T) {
	s := newTestServer(t, &stubFetcher{url: "https://example.com", body: "<p>bảo trì</p>"})
	assert.Equal(t, extractor.NoTableMessage, s.GoldPrice(context.Background()))
}

func TestGoldPriceWithRealFetcher(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, url, got string)
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(pricePage))
			},
			check: func(t *testing.T, _ string, got string) {
				assert.Contains(t, got, "Thông tin bổ sung từ trang (tiếng Việt): Cập nhật 08:00")
			},
		},
		{
			name: "upstream 503",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusServiceUnavailable)
			},
			check: func(t *testing.T, url string, got string) {
				assert.True(t, strings.HasPrefix(got, "Lỗi khi tải dữ liệu từ "+url+": "))
				assert.Contains(t, got, "503")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{URL: upstream.URL, RateLimit: 100})
			require.NoError(t, err)

			s, err := NewToolServer(Config{}, f, newTestMetrics(t), zerolog.Nop())
			require.NoError(t, err)

			tt.check(t, upstream.URL, s.GoldPrice(context.Background()))
		})
	}
}

func TestHTTPHandler(t *testing.T) {
	s := newTestServer(t, &stubFetcher{url: "https://example.com", body: pricePage})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "ok", ready.Checks["serving"])

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer cs.Close()

	assert.Contains(t, textOf(t, callTool(t, cs)), "15.140.000 ▲50K")
}

func TestRunUnsupportedTransport(t *testing.T) {
	s, err := NewToolServer(Config{Transport: "carrier-pigeon"}, &stubFetcher{}, newTestMetrics(t), zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, s.Run(context.Background()))
}

func TestRunHTTPStopsOnCancel(t *testing.T) {
	s, err := NewToolServer(Config{Transport: TransportHTTP, Addr: "127.0.0.1:0"}, &stubFetcher{}, newTestMetrics(t), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
	assert.True(t, s.draining.Load())
}

func TestReadyzFailsWhileDraining(t *testing.T) {
	s := newTestServer(t, &stubFetcher{})
	s.draining.Store(true)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
