// Package bedrock provides an AWS Bedrock implementation of the embedding
// provider interface, using Titan Text Embeddings V2.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Config contains AWS Bedrock configuration.
type Config struct {
	Region         string // AWS region (e.g. "us-east-1")
	EmbeddingModel string // Titan model ID (e.g. "amazon.titan-embed-text-v2:0")
	Dimensions     int    // Declared vector size (Titan V2 default: 1024)
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Region:         "us-east-1",
		EmbeddingModel: "amazon.titan-embed-text-v2:0",
		Dimensions:     1024,
	}
}

// Provider implements ai.EmbeddingProvider using AWS Bedrock.
type Provider struct {
	cfg    *Config
	client *bedrockruntime.Client
}

// NewProvider creates a new Bedrock embedding provider. Credentials come
// from the default AWS credential chain.
func NewProvider(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Provider{
		cfg:    cfg,
		client: bedrockruntime.NewFromConfig(awsCfg),
	}, nil
}

func (p *Provider) Name() string {
	return "bedrock"
}

func (p *Provider) Dimensions() int {
	return p.cfg.Dimensions
}

// EmbedText invokes the Titan embedding model for one text.
func (p *Provider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]interface{}{
		"inputText":  text,
		"dimensions": p.cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.cfg.EmbeddingModel),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke failed: %w", err)
	}

	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
