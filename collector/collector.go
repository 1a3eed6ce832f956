package collector

import (
	"context"
	"fmt"
	"log/slog"

	"hn-order-checker/models"
)

// BatchSource produces article batches page by page
type BatchSource interface {
	Next(ctx context.Context) ([]models.Article, error)
}

// Collect pulls batches from src until n articles are gathered and returns
// exactly the first n of them. No batch is requested once n is reached.
func Collect(ctx context.Context, src BatchSource, n int, logger *slog.Logger) ([]models.Article, error) {
	articles := make([]models.Article, 0, n)
	pageNum := 0

	for len(articles) < n {
		batch, err := src.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("collected %d of %d articles: %w", len(articles), n, err)
		}
		articles = append(articles, batch...)
		pageNum++

		logger.Info("Fetched page", "page", pageNum, "articles", len(batch), "total", len(articles), "target", n)
	}

	if len(articles) > n {
		logger.Debug("Trimming articles", "collected", len(articles), "kept", n)
		articles = articles[:n]
	}

	return articles, nil
}
