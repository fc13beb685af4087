// Package server exposes the gold-price summary as a single MCP tool over
// stdio or streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/xhad/giavang/internal/health"
	"github.com/xhad/giavang/internal/observe"
	"github.com/xhad/giavang/internal/types"
	"github.com/xhad/giavang/pkg/extractor"
)

const (
	ToolName        = "fetch_gia_vang_giao_thuy"
	ToolDescription = "Lấy bảng giá vàng từ https://cccsonline.click/gia-vang-giao-thuy " +
		"và trả về tóm tắt dạng markdown bằng tiếng Việt."

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	shutdownTimeout = 5 * time.Second
)

type Config struct {
	Name      string
	Version   string
	Transport string
	Addr      string
}

// GoldPriceInput is intentionally empty: the tool takes no arguments.
type GoldPriceInput struct{}

type ToolServer struct {
	config    Config
	fetcher   types.Fetcher
	extractor types.Extractor
	metrics   *observe.Metrics
	log       zerolog.Logger
	mcp       *mcp.Server

	// draining flips to true once the http server starts shutting down.
	draining atomic.Bool
}

func NewToolServer(config Config, fetcher types.Fetcher, metrics *observe.Metrics, log zerolog.Logger) (*ToolServer, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if config.Name == "" {
		config.Name = "gia-vang-giao-thuy-mcp"
	}
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	if config.Transport == "" {
		config.Transport = TransportStdio
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	s := &ToolServer{
		config:    config,
		fetcher:   fetcher,
		extractor: extractor.New(),
		metrics:   metrics,
		log:       log.With().Str("component", "mcp-server").Logger(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    config.Name,
		Version: config.Version,
	}, nil)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolName,
		Description: ToolDescription,
	}, s.handleGoldPrice)

	return s, nil
}

func (s *ToolServer) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *ToolServer) handleGoldPrice(ctx context.Context, _ *mcp.CallToolRequest, _ GoldPriceInput) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s.GoldPrice(ctx)}},
	}, nil, nil
}

// GoldPrice fetches the page and renders the summary. It always returns text:
// fetch failures come back as an error sentence naming the URL.
func (s *ToolServer) GoldPrice(ctx context.Context) string {
	url := s.fetcher.URL()
	log := s.log.With().Str("tool", ToolName).Str("url", url).Logger()

	start := time.Now()
	body, err := s.fetcher.Fetch(ctx)
	elapsed := time.Since(start)
	s.metrics.RecordFetch(ctx, elapsed, err)

	if err != nil {
		log.Warn().Err(err).Dur("duration", elapsed).Msg("Failed to fetch gold price page")
		s.metrics.RecordToolCall(ctx, observe.StatusFetchError)
		return fmt.Sprintf("Lỗi khi tải dữ liệu từ %s: %v", url, err)
	}

	text := s.extractor.Format(body)

	status := observe.StatusOK
	if text == extractor.NoTableMessage || text == extractor.NoDataMessage {
		status = observe.StatusFallback
	}
	s.metrics.RecordToolCall(ctx, status)
	log.Info().Str("status", status).Dur("duration", elapsed).Int("bytes", len(body)).Msg("Gold price tool call finished")

	return text
}

// Handler serves the streamable MCP endpoint plus health and metrics.
func (s *ToolServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))

	health.New(health.Checker{
		Name:  "serving",
		Check: s.checkServing,
	}).Register(mux)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *ToolServer) checkServing(context.Context) error {
	if s.draining.Load() {
		return errors.New("shutting down")
	}
	return nil
}

// Run serves until ctx is cancelled or the transport fails.
func (s *ToolServer) Run(ctx context.Context) error {
	switch s.config.Transport {
	case TransportStdio:
		s.log.Info().Str("transport", TransportStdio).Msg("Serving MCP tool")
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
}

func (s *ToolServer) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("transport", TransportHTTP).Str("addr", s.config.Addr).Msg("Serving MCP tool")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.draining.Store(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
