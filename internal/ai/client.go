// Package ai resolves natural-language due times through an
// OpenAI-compatible endpoint. It is an optional fallback behind the
// hand-written parser; the bot works fully without it.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

const systemPromptTemplate = `Ты — парсер дат для планировщика напоминаний.
Текущее время пользователя: %s (часовой пояс %s).
Пользователь описывает момент времени на русском или английском языке
(например "в пятницу в 9 утра", "через полтора часа", "next monday at noon").

Ответь ровно одной строкой в формате YYYY-MM-DD HH:MM — это момент в
часовом поясе пользователя. Если выражение не является моментом
времени, ответь ровно NONE. Никакого другого текста.`

// ResolveDateTime asks the model to turn text into a concrete local
// time and returns it as a UTC instant.
func (c *Client) ResolveDateTime(ctx context.Context, text, tz string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	localNow := now.In(loc)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, localNow.Format("2006-01-02 15:04"), tz),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("ai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, fmt.Errorf("ai returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" || strings.EqualFold(answer, "NONE") {
		return time.Time{}, fmt.Errorf("ai could not resolve %q", text)
	}

	resolved, err := time.ParseInLocation("2006-01-02 15:04", answer, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("ai returned unparseable time %q: %w", answer, err)
	}
	return resolved.UTC(), nil
}
