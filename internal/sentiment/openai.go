package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const scorerPrompt = `You rate the sentiment of one short Chinese viewer comment from a video site.
Return a single JSON object with "score": a number in [0,1] where 0 is very negative,
0.5 is neutral and 1 is very positive. Internet slang such as "yyds", "awsl", "绝了" is positive.
Do not explain.`

type scoreResponse struct {
	Score float64 `json:"score" jsonschema:"required"`
}

var scoreSchema = generateSchema[scoreResponse]()

// OpenAIScorer scores text with a hosted model through the Responses API using a strict
// JSON schema for the reply.
type OpenAIScorer struct {
	client *openai.Client
	model  string
}

// NewOpenAIScorer creates a scorer. Extra request options (base URL, retries) are passed
// through to the client.
func NewOpenAIScorer(apiKey, model string, opts ...option.RequestOption) *OpenAIScorer {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIScorer{client: &client, model: model}
}

// Score implements Scorer
func (s *OpenAIScorer) Score(ctx context.Context, text string) (float64, error) {
	if s.client == nil {
		return 0, errors.New("openai scorer: client is nil")
	}
	if s.model == "" {
		return 0, errors.New("openai scorer: model is empty")
	}

	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(64),
		Instructions:    openai.String(scorerPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "SentimentScore",
					Schema:      scoreSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Sentiment score JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := s.client.Responses.New(ctx, params)
	if err != nil {
		return 0, err
	}

	var out scoreResponse
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return 0, fmt.Errorf("unmarshal score: %w (model_output=%q)", err, truncate(resp.OutputText(), 200))
	}
	return out.Score, nil
}

// decodeModelJSON tolerates code fences and chatter around the JSON object
func decodeModelJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return errors.New("no JSON object in model output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	m["additionalProperties"] = false
	return m
}
