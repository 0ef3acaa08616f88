// Package tool orchestrates the normalize -> query -> format pipeline behind
// every MCP tool and owns the static tool registry.
package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wealthai/productmaster-mcp/internal/domain"
	"github.com/wealthai/productmaster-mcp/internal/logger"
	"github.com/wealthai/productmaster-mcp/internal/metrics"
)

// inputRequiredMessage is the fixed reply for a missing text_input. Returned
// before any collaborator is touched.
const inputRequiredMessage = "text_inputが必要です"

// Pipeline sequences one tool call: validate input, normalize, query, format.
// Stage failures degrade into a well-formed ToolResponse; nothing escapes to
// the transport layer. All collaborators are injected, so requests share no
// mutable state beyond them.
type Pipeline struct {
	normalize Normalizer
	catalog   Catalog
	format    Formatter
}

// NewPipeline creates a pipeline.
func NewPipeline(normalize Normalizer, catalog Catalog, format Formatter) *Pipeline {
	return &Pipeline{normalize: normalize, catalog: catalog, format: format}
}

// Run executes one tool call and always returns a complete ToolResponse with
// the accumulated trace attached. The deferred recover is the last-resort net
// for anything a stage failed to anticipate.
func (p *Pipeline) Run(ctx context.Context, v *Variant, args map[string]any) (resp domain.ToolResponse) {
	start := time.Now()
	tr := &domain.Trace{Tool: v.Name}

	defer func() {
		if r := recover(); r != nil {
			tr.ElapsedMS = domain.MillisSince(start)
			tr.Error = fmt.Sprintf("panic: %v", r)
			logger.FromContext(ctx).Error("tool pipeline panic",
				zap.String("tool", v.Name), zap.Any("panic", r), zap.Stack("stacktrace"))
			metrics.ToolCallsTotal.WithLabelValues(v.Name, "InternalError").Inc()
			resp = domain.ToolResponse{
				Result:        fmt.Sprintf("サーバーエラー: %v", r),
				Error:         fmt.Sprintf("InternalError: %v", r),
				DebugResponse: tr,
			}
		}
	}()

	text, _ := args["text_input"].(string)
	text = strings.TrimSpace(text)
	if text == "" {
		tr.ElapsedMS = domain.MillisSince(start)
		tr.Error = domain.ErrInputRequired.Error()
		metrics.ToolCallsTotal.WithLabelValues(v.Name, "InputError").Inc()
		return domain.ToolResponse{
			Result:        inputRequiredMessage,
			Error:         "InputError: " + domain.ErrInputRequired.Error(),
			DebugResponse: tr,
		}
	}
	tr.Input = text

	result, err := v.run(ctx, p, text, tr)
	tr.ElapsedMS = domain.MillisSince(start)
	metrics.ToolCallDuration.WithLabelValues(v.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		category := domain.ErrorCategory(err)
		tr.Error = err.Error()
		metrics.ToolCallsTotal.WithLabelValues(v.Name, category).Inc()
		logger.FromContext(ctx).Warn("tool call degraded",
			zap.String("tool", v.Name), zap.String("category", category), zap.Error(err))
		if result == "" {
			result = fmt.Sprintf("商品検索でエラーが発生しました: %v", err)
		}
		return domain.ToolResponse{
			Result:        result,
			Error:         fmt.Sprintf("%s: %v", category, err),
			DebugResponse: tr,
		}
	}

	metrics.ToolCallsTotal.WithLabelValues(v.Name, "success").Inc()
	logger.FromContext(ctx).Info("tool call complete",
		zap.String("tool", v.Name), zap.Float64("elapsed_ms", tr.ElapsedMS))
	return domain.ToolResponse{Result: result, DebugResponse: tr}
}

// runQuery executes a built query with trace bookkeeping.
func (p *Pipeline) runQuery(ctx context.Context, tr *domain.Trace, query string, args []any) ([]domain.Product, error) {
	qt := &domain.QueryTrace{SQL: query, Args: args}
	tr.Query = qt

	start := time.Now()
	rows, err := p.catalog.Search(ctx, query, args)
	qt.ElapsedMS = domain.MillisSince(start)
	if err != nil {
		qt.Error = err.Error()
		return nil, err
	}
	qt.RowCount = len(rows)
	return rows, nil
}

// mergeNormalize folds a later trace fragment into the request trace,
// appending model exchanges so two-pass variants show every round trip.
func mergeNormalize(tr *domain.Trace, nt *domain.NormalizeTrace) {
	if nt == nil {
		return
	}
	if tr.Normalize == nil {
		tr.Normalize = nt
		return
	}
	tr.Normalize.Stages = append(tr.Normalize.Stages, nt.Stages...)
	tr.Normalize.ElapsedMS = domain.Round2(tr.Normalize.ElapsedMS + nt.ElapsedMS)
	if nt.Parsed != nil {
		tr.Normalize.Parsed = nt.Parsed
	}
	if nt.Error != "" {
		tr.Normalize.Error = nt.Error
	}
}
