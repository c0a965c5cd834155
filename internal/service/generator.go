package service

import (
	"context"
	"fmt"
	"time"
)

// GeneratedSummary is the outcome of analysing a work order document.
type GeneratedSummary struct {
	Title       string
	Description string
}

// SummaryGenerator produces a case title and description from an uploaded
// work order. Implementations are expected to honour context cancellation.
type SummaryGenerator interface {
	Generate(ctx context.Context, category, workOrderFile string) (*GeneratedSummary, error)
}

// TemplateGenerator renders canned per-category copy after a fixed delay
// that imitates OCR and model latency. It stands in for a real document
// pipeline in demo deployments.
type TemplateGenerator struct {
	delay time.Duration
}

// NewTemplateGenerator constructs a generator with the given simulated delay.
func NewTemplateGenerator(delay time.Duration) *TemplateGenerator {
	if delay < 0 {
		delay = 0
	}
	return &TemplateGenerator{delay: delay}
}

// Generate waits for the configured delay, then returns the category
// templates. Cancelling the context aborts the wait.
func (g *TemplateGenerator) Generate(ctx context.Context, category, workOrderFile string) (*GeneratedSummary, error) {
	if category == "" {
		return nil, fmt.Errorf("generate summary: category is required")
	}
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return &GeneratedSummary{
		Title:       fmt.Sprintf("%s工事：機能性とデザイン性を両立した施工事例", category),
		Description: fmt.Sprintf("%s工事を実施いたしました。既存設備の撤去から新規設備の設置まで一新し、お客様のライフスタイルに合わせた機能的な設計を実現。清掃性と使いやすさを重視した高品質な仕上がりとなりました。", category),
	}, nil
}
