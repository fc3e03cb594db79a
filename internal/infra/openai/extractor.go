package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/extraction"
)

// Extractor asks a chat model for the customer fields.
type Extractor struct {
	client openai.Client
	model  string
}

func NewExtractor(client openai.Client, model string) *Extractor {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &Extractor{client: client, model: model}
}

func (e *Extractor) Extract(ctx context.Context, text string) (domain.CustomerFields, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extraction.Instruction),
			openai.UserMessage(text),
		},
		Model:       openai.ChatModel(e.model),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return domain.CustomerFields{}, extraction.Unavailable(err)
	}

	if len(resp.Choices) == 0 {
		return domain.CustomerFields{}, extraction.Unavailable(errors.New("no choices in response"))
	}

	return extraction.ParseReply(resp.Choices[0].Message.Content)
}
