package types

import (
	"context"

	"github.com/xhad/giavang/internal/models"
)

// Core interfaces
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
	URL() string
}

type Extractor interface {
	Format(html string) string
	Extract(html string) models.Page
}

type Explainer interface {
	Explain(ctx context.Context, summary, question string) (string, error)
}
