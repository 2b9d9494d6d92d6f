package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

// geminiEmbedProvider talks to the Gemini embedding API. The client is
// built once and reused; imports embed thousands of chunks back to back.
type geminiEmbedProvider struct {
	apiKey string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		p.client, p.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return p.client, p.clientErr
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}
	var embedCfg *genai.EmbedContentConfig
	if taskType != "" {
		embedCfg = &genai.EmbedContentConfig{TaskType: taskType}
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		embedCfg,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned no embedding values")
	}
	return resp.Embeddings[0].Values, nil
}

func init() {
	RegisterEmbed("gemini", func(args interface{}) (IEmbedProvider, error) {
		cfg := &geminiConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		return &geminiEmbedProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
	})
}
