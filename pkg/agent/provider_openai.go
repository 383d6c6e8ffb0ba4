package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	loopTemperature       = 0.2
	structuredTemperature = 0.0
)

// OpenAIService implements ChatService against any OpenAI-compatible
// chat-completions endpoint.
type OpenAIService struct {
	client openai.Client
	model  string
}

// NewOpenAIService creates a chat service. An empty baseURL selects the
// official OpenAI endpoint.
func NewOpenAIService(apiKey, baseURL, model string) *OpenAIService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIService{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// ChatTools makes a tool-forced chat-completions call.
func (s *OpenAIService) ChatTools(ctx context.Context, messages []Message, tools []ToolSpec) (*TurnReply, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(s.model),
		Messages:    toOpenAIMessages(messages),
		Tools:       toOpenAITools(tools),
		Temperature: openai.Float(loopTemperature),
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("required"),
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	choice := resp.Choices[0]
	toolCalls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to parse arguments for tool %s: %w", tc.Function.Name, err)
			}
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return &TurnReply{Content: choice.Message.Content, ToolCalls: toolCalls}, nil
}

// ChatStructured makes a strict json_schema structured-output call and
// decodes the answer into out.
func (s *OpenAIService) ChatStructured(ctx context.Context, system, user string, schema StructuredSchema, out interface{}) error {
	format := shared.ResponseFormatJSONSchemaParam{
		JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   schema.Name,
			Strict: openai.Bool(true),
			Schema: schema.Schema,
		},
	}
	if schema.Description != "" {
		format.JSONSchema.Description = openai.String(schema.Description)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(structuredTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &format,
		},
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("structured completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response choices returned")
	}

	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("failed to decode structured response %s: %w", schema.Name, err)
	}
	return nil
}

// toOpenAIMessages converts conversation turns to the wire format.
func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				argsJSON, err := json.Marshal(tc.Arguments)
				if err != nil {
					argsJSON = []byte("{}")
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(argsJSON),
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

// toOpenAITools converts tool specs to the wire format.
func toOpenAITools(tools []ToolSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Schema),
			},
		})
	}
	return out
}
