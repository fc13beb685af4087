package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	cfgPkg "github.com/xhad/giavang/pkg/config"
)

const usage = `Usage: giavang [flags] [serve|fetch|ask "<question>"]

Commands:
  serve   register the %s tool and serve MCP requests (default)
  fetch   run the tool once and print its text
  ask     run the tool once and let the LLM explain the result

Flags:
`

type options struct {
	configPath string
	sourceURL  string
	transport  string
	addr       string
	logLevel   string
	ollamaURL  string
	model      string
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	opts := parseFlags()

	config, err := loadConfig(opts)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	switch command {
	case "serve":
		err = runServe(ctx, config)
	case "fetch":
		err = runFetch(ctx, config)
	case "ask":
		err = runAsk(ctx, config, strings.Join(flag.Args()[1:], " "))
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), usage, "fetch_gia_vang_giao_thuy")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.sourceURL, "url", "", "Gold price page URL")
	flag.StringVar(&opts.transport, "transport", "", "MCP transport: stdio or http")
	flag.StringVar(&opts.addr, "addr", "", "Listen address for the http transport")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.ollamaURL, "ollama-url", "", "Ollama server URL for the ask command")
	flag.StringVar(&opts.model, "model", "", "LLM model for the ask command")
	flag.Parse()

	return opts
}

// loadConfig layers explicitly set flags over file and environment values.
func loadConfig(opts options) (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			config.Source.URL = opts.sourceURL
		case "transport":
			config.Server.Transport = opts.transport
		case "addr":
			config.Server.Addr = opts.addr
		case "log-level":
			config.Log.Level = opts.logLevel
		case "ollama-url":
			config.LLM.BaseURL = opts.ollamaURL
		case "model":
			config.LLM.Model = opts.model
		}
	})

	if errs := config.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	return config, nil
}
