package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Analyzer identifies a product from a photo
type Analyzer interface {
	Analyze(ctx context.Context, imageBase64 string) (*structs.AnalysisResult, error)
}

const analysisPrompt = `You are a second hand product appraiser. Identify the product in the photo and answer with a JSON object with the keys:
productType (string), brand (string), model (string), condition (one of "new", "like new", "good", "fair", "poor"),
category (string), features (array of short strings) and confidence (number between 0 and 1).
Use an empty string for anything you cannot determine.`

// OpenAIAnalyzer calls the OpenAI chat completions API with the photo as an
// image content part and asks for a JSON object back.
type OpenAIAnalyzer struct {
	client openai.Client
	model  string
}

func NewOpenAIAnalyzer(cfg *structs.AnalysisConfig) *OpenAIAnalyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.ApiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// imageDataURL accepts either a bare base64 payload or a complete data URL
func imageDataURL(imageBase64 string) string {
	if strings.HasPrefix(imageBase64, "data:") {
		return imageBase64
	}
	return "data:image/jpeg;base64," + imageBase64
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, imageBase64 string) (*structs.AnalysisResult, error) {
	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Analyse this item."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageDataURL(imageBase64),
				}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(800),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.StatusCode)
			}
			return nil, fmt.Errorf("analysis api returned %d: %s", apiErr.StatusCode, msg)
		}
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("analysis api returned no choices")
	}

	result := &structs.AnalysisResult{}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), result); err != nil {
		return nil, fmt.Errorf("analysis content is not valid JSON: %w", err)
	}
	result.Confidence = min(max(result.Confidence, 0), 1)
	return result, nil
}

type AnalysisService struct {
	logger       *gecho.Logger
	store        database.Storage
	analyzer     Analyzer
	cacheService *CacheService
}

// NewAnalysisService wires the oracle; a nil analyzer makes AnalyzeItem
// return lib.ErrAnalysisUnavailable.
func NewAnalysisService(logger *gecho.Logger, store database.Storage, analyzer Analyzer, cacheService *CacheService) *AnalysisService {
	return &AnalysisService{
		logger:       logger,
		store:        store,
		analyzer:     analyzer,
		cacheService: cacheService,
	}
}

// AnalyzeItem runs the item's photo through the oracle. The item is marked
// analyzing for the duration of the call, which happens outside any
// transaction; on success the analysis is stored and the item moves to
// pricing, on failure it returns to its previous status.
func (as *AnalysisService) AnalyzeItem(ctx context.Context, itemId uuid.UUID) (*tables.ItemAnalysis, error) {
	if as.analyzer == nil {
		return nil, lib.ErrAnalysisUnavailable
	}

	item, err := as.store.FindItem(ctx, itemId)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, lib.ErrNotFound
	}
	if item.ImageUrl == nil || *item.ImageUrl == "" {
		return nil, lib.ErrMissingImage
	}
	if !canAnalyze(item.Status) {
		return nil, fmt.Errorf("%w: cannot analyse an item that is %s", lib.ErrInvalidStatusTransition, item.Status)
	}

	previous := item.Status
	if err := as.store.UpdateItemStatus(ctx, item.Id, tables.ItemStatusAnalyzing); err != nil {
		return nil, err
	}
	as.cacheService.InvalidateTracking(ctx, item.ReferenceId)

	startTime := time.Now()
	result, err := as.analyzer.Analyze(ctx, *item.ImageUrl)
	if err != nil {
		as.logger.Error("Item analysis failed",
			gecho.Field("item_id", item.Id),
			gecho.Field("error", err),
		)
		as.restoreStatus(ctx, item, previous)
		return nil, fmt.Errorf("%w: %w", lib.ErrAnalysisFailed, err)
	}

	analysis := &tables.ItemAnalysis{
		ItemId:      item.Id,
		ProductType: result.ProductType,
		Brand:       result.Brand,
		Model:       result.Model,
		Condition:   result.Condition,
		Category:    result.Category,
		Features:    result.Features,
		Confidence:  result.Confidence,
		Raw:         analysisToMap(result),
		CreatedAt:   time.Now(),
	}
	if analysis.Features == nil {
		analysis.Features = []string{}
	}

	err = as.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		if err := tx.UpsertAnalysis(ctx, analysis); err != nil {
			return err
		}
		return tx.UpdateItemStatus(ctx, item.Id, tables.ItemStatusPricing)
	})
	if err != nil {
		as.logger.Error("Failed to store item analysis",
			gecho.Field("item_id", item.Id),
			gecho.Field("error", err),
		)
		as.restoreStatus(ctx, item, previous)
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}
	as.cacheService.InvalidateTracking(ctx, item.ReferenceId)

	as.logger.Info("Item analysed",
		gecho.Field("item_id", item.Id),
		gecho.Field("product_type", analysis.ProductType),
		gecho.Field("confidence", analysis.Confidence),
		gecho.Field("elapsed_time_ms", time.Since(startTime).Milliseconds()),
	)
	return analysis, nil
}

// restoreStatus puts an item back where it was before analysis started. It
// runs detached from ctx so a cancelled request cannot strand the item.
func (as *AnalysisService) restoreStatus(ctx context.Context, item *tables.Item, previous tables.ItemStatus) {
	ctx = context.WithoutCancel(ctx)
	if err := as.store.UpdateItemStatus(ctx, item.Id, previous); err != nil {
		as.logger.Error("Failed to restore item status after analysis",
			gecho.Field("item_id", item.Id),
			gecho.Field("status", previous),
			gecho.Field("error", err),
		)
	}
	as.cacheService.InvalidateTracking(ctx, item.ReferenceId)
}

func analysisToMap(result *structs.AnalysisResult) map[string]any {
	data, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
