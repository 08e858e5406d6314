package magicbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dvloznov/money-mngr/internal/ledger"
)

// defaultOracleConfidence stands in when the oracle omits or mangles its
// confidence score. Oracle responses are trusted more than an absent score.
const defaultOracleConfidence = 80

// Oracle is the external natural-language extraction service. One outbound
// call per explicit user trigger; no internal retries, retry policy belongs
// to the caller.
type Oracle interface {
	Suggest(ctx context.Context, text string) (*Draft, error)
}

// GeminiOracle calls Gemini with a fixed structured-output schema and
// normalizes the response into the same Draft shape the matcher produces.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGeminiOracle creates the oracle adapter. The genai client reads its API
// key from the environment (GEMINI_API_KEY).
func NewGeminiOracle(ctx context.Context, model string) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiOracle: create genai client: %w", err)
	}
	return &GeminiOracle{client: client, model: model}, nil
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount":     {Type: genai.TypeNumber, Description: "The transaction amount"},
		"type":       {Type: genai.TypeString, Enum: []string{"EXPENSE", "INCOME"}, Description: "The type of transaction"},
		"bankName":   {Type: genai.TypeString, Description: "Name of the bank"},
		"merchant":   {Type: genai.TypeString, Description: "Merchant name if mentioned"},
		"category":   {Type: genai.TypeString, Description: "Suggested category (e.g. Food, Transport, Salary)"},
		"confidence": {Type: genai.TypeNumber, Description: "Confidence score from 0 to 100"},
	},
	Required: []string{"amount", "type", "bankName"},
}

// Suggest sends the raw text to Gemini and returns a normalized draft.
// Every failure mode comes back as *ExtractionError; the caller must fall
// back to manual entry, never crash.
func (o *GeminiOracle) Suggest(ctx context.Context, text string) (*Draft, error) {
	prompt := fmt.Sprintf(
		"Analyze this bank notification and extract transaction details.\nMessage: %q", text)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema,
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), config)
	if err != nil {
		return nil, &ExtractionError{Reason: "oracle call failed", Err: err}
	}

	raw := resp.Text()
	if raw == "" {
		return nil, &ExtractionError{Reason: "empty oracle response"}
	}

	return decodeSuggestion(cleanModelJSON(raw))
}

// suggestionPayload mirrors the fixed extraction schema on the wire.
type suggestionPayload struct {
	Amount     *float64 `json:"amount"`
	Type       string   `json:"type"`
	BankName   string   `json:"bankName"`
	Merchant   string   `json:"merchant"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// decodeSuggestion validates the oracle response against the closed schema.
// Unknown kinds and non-positive amounts are schema violations, not values
// to be passed through.
func decodeSuggestion(raw string) (*Draft, error) {
	var p suggestionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &ExtractionError{Reason: "malformed oracle JSON", Err: err}
	}

	if p.Amount == nil || *p.Amount <= 0 {
		return nil, &ExtractionError{Reason: "oracle amount missing or not positive"}
	}

	kind, err := ledger.ParseKind(p.Type)
	if err != nil || kind == ledger.KindTransfer {
		return nil, &ExtractionError{Reason: fmt.Sprintf("oracle returned kind %q outside the extraction schema", p.Type)}
	}

	confidence := defaultOracleConfidence
	if p.Confidence != nil && *p.Confidence >= 0 && *p.Confidence <= 100 {
		confidence = int(*p.Confidence)
	}

	bank := strings.TrimSpace(p.BankName)
	if bank == "" {
		bank = "Unknown"
	}

	return &Draft{
		Amount:       decimal.NewFromFloat(*p.Amount),
		Kind:         kind,
		Bank:         bank,
		Merchant:     strings.TrimSpace(p.Merchant),
		CategoryHint: strings.TrimSpace(p.Category),
		Confidence:   confidence,
		Provenance:   ProvenanceOracle,
	}, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the JSON-only instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
