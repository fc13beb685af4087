package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/giavang/internal/observe"
	cfgPkg "github.com/xhad/giavang/pkg/config"
	"github.com/xhad/giavang/pkg/fetcher"
	"github.com/xhad/giavang/pkg/llm"
	"github.com/xhad/giavang/server"
)

// newLogger writes to stderr only; stdout carries the stdio MCP stream.
func newLogger(config *cfgPkg.Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if config.Log.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func newToolServer(config *cfgPkg.Config, log zerolog.Logger) (*server.ToolServer, error) {
	f, err := fetcher.NewWithConfig(fetcher.FetcherConfig{
		URL:          config.Source.URL,
		Timeout:      config.Source.Timeout,
		RateLimit:    config.Source.RateLimit,
		UserAgent:    config.Source.UserAgent,
		MaxBodyBytes: config.Source.MaxBodyBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fetcher: %w", err)
	}

	s, err := server.NewToolServer(server.Config{
		Name:      config.Server.Name,
		Version:   config.Server.Version,
		Transport: config.Server.Transport,
		Addr:      config.Server.Addr,
	}, f, observe.DefaultMetrics(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tool server: %w", err)
	}

	return s, nil
}

func runServe(ctx context.Context, config *cfgPkg.Config) error {
	log := newLogger(config)

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    config.Server.Name,
		ServiceVersion: config.Server.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down metrics provider")
		}
	}()

	s, err := newToolServer(config, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("tool", server.ToolName).
		Str("source", config.Source.URL).
		Str("transport", config.Server.Transport).
		Msg("Starting gold price MCP server")

	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runFetch(ctx context.Context, config *cfgPkg.Config) error {
	s, err := newToolServer(config, newLogger(config))
	if err != nil {
		return err
	}

	spinner := getSpinner(" Đang tải bảng giá vàng...")
	text := s.GoldPrice(ctx)
	spinner.Finish()

	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %s\n", config.Source.URL)
	fmt.Println(text)
	return nil
}

func runAsk(ctx context.Context, config *cfgPkg.Config, question string) error {
	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		BaseURL:     config.LLM.BaseURL,
		Temperature: *config.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	s, err := newToolServer(config, newLogger(config))
	if err != nil {
		return err
	}

	spinner := getSpinner(" Đang tải bảng giá vàng...")
	summary := s.GoldPrice(ctx)
	spinner.Finish()

	spinner = getSpinner(" Đang hỏi trợ lý...")
	answer, err := chatEngine.Explain(ctx, summary, question)
	spinner.Finish()
	if err != nil {
		return err
	}

	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	assistantPrompt("Trợ lý: ")
	fmt.Println(answer)
	return nil
}
