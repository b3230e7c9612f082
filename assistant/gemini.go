package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tienchung1704/real-dinhanstore/config"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"google.golang.org/genai"
)

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}, nil
}

func (g *Gemini) Reply(ctx context.Context, system string, history []Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range Trim(history) {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty answer")
	}
	return text, nil
}
