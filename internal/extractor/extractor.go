// Package extractor turns raw document text into a fact set using an LLM.
// The model is asked for a fixed JSON schema; responses are cleaned, parsed,
// and structurally validated before they are accepted, with a fixed-delay
// retry around the whole attempt.
package extractor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/finmetrics/internal/analysis"
	"github.com/sells-group/finmetrics/internal/config"
	"github.com/sells-group/finmetrics/internal/model"
	"github.com/sells-group/finmetrics/internal/resilience"
	"github.com/sells-group/finmetrics/pkg/anthropic"
)

const systemPrompt = "You are a multilingual financial expert. Respond only with valid JSON."

const extractionTemperature = 0.1

// Extractor extracts financial facts from document text.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig
	limiter   *rate.Limiter
}

// New creates an Extractor from config.
func New(client anthropic.Client, anthCfg config.AnthropicConfig, extCfg config.ExtractConfig) *Extractor {
	retry := resilience.FixedRetryConfig(extCfg.MaxRetries, time.Duration(extCfg.RetryDelaySecs*float64(time.Second)))
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract_facts")

	var limiter *rate.Limiter
	if extCfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(extCfg.RatePerSecond), 1)
	}

	return &Extractor{
		client:    client,
		model:     anthCfg.Model,
		maxTokens: int64(anthCfg.MaxTokens),
		retry:     retry,
		limiter:   limiter,
	}
}

// Extract asks the model for the financial facts in text and returns them as
// a fact set ready for analysis. The document text is carried along for
// currency resolution.
func (e *Extractor) Extract(ctx context.Context, text string) (*model.RawFactSet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("extractor: empty document text")
	}

	return resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*model.RawFactSet, error) {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "extractor: rate limit wait")
			}
		}

		resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.model,
			MaxTokens:   e.maxTokens,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(text)}},
			Temperature: model.Float(extractionTemperature),
		})
		if err != nil {
			return nil, err
		}
		resp.Usage.LogCost(e.model, "extract_facts")

		raw, err := parseResponse(resp.FirstText())
		if err != nil {
			zap.L().Warn("extraction response rejected", zap.Error(err))
			return nil, err
		}

		raw.FreeText = text
		return raw, nil
	})
}

func buildPrompt(text string) string {
	return `Analyze this financial document and return ONLY a valid JSON object.

Find these values in the text:
1. REVENUE (Sales/Turnover)
2. EBIT (Operating Result)
3. EBITDA (EBIT + Depreciation + Amortization)
4. NET INCOME (Final profit/loss)
5. DEPRECIATION
6. AMORTIZATION
7. EMPLOYEE COUNT
8. COMPANY TYPE ("general", "bank_nbfc", or "insurance")

FORMAT YOUR RESPONSE EXACTLY LIKE THIS, replacing values with null if not found:
{
    "revenue": 1000000,
    "ebit": -50000,
    "ebitda": -45000,
    "net_income": -55000,
    "depreciation": 5000,
    "amortization": null,
    "employees": 100,
    "company_type": "general",
    "currency": "EUR",
    "units": "actuals",
    "confidence_score": 90
}

CRITICAL RULES:
1. Response MUST be a valid JSON object
2. Respond with ONLY the JSON object, no other text
3. Use exact numbers found in document
4. Keep negative signs (-)
5. Use null for missing values
6. Units must be one of: "millions", "thousands", "actuals"

Input text:
` + text
}

// cleanJSON trims the response down to the outermost JSON object. Models
// sometimes wrap the object in prose or code fences despite instructions.
func cleanJSON(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", eris.New("extractor: no JSON object in response")
	}
	candidate := response[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", eris.New("extractor: response JSON is not parseable")
	}
	return candidate, nil
}

// requiredKeys must all be present in the response object, even as null.
var requiredKeys = []string{"revenue", "ebit", "net_income", "currency", "units", "confidence_score"}

// metricKeys maps response fields to fact names the analysis cascades read.
var metricKeys = map[string]string{
	"revenue":      analysis.FactRevenue,
	"ebit":         analysis.FactOperatingProfit,
	"ebitda":       analysis.FactEBITDA,
	"net_income":   analysis.FactNetIncome,
	"depreciation": analysis.FactDepreciation,
	"amortization": analysis.FactAmortization,
}

func parseResponse(response string) (*model.RawFactSet, error) {
	cleaned, err := cleanJSON(response)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, eris.Wrap(err, "extractor: decode response")
	}

	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, eris.Errorf("extractor: response missing %q", key)
		}
	}

	currency, ok := fields["currency"].(string)
	if !ok {
		return nil, eris.New("extractor: currency must be a string")
	}

	units, _ := fields["units"].(string)
	units = strings.ToLower(units)
	if !model.KnownUnits[model.Unit(units)] {
		return nil, eris.Errorf("extractor: invalid units %q", units)
	}

	confidence, ok := analysis.NormalizeNumber(fields["confidence_score"])
	if !ok || confidence < 0 || confidence > 100 {
		return nil, eris.New("extractor: confidence_score must be between 0 and 100")
	}

	facts := make(map[string]any)
	for field, fact := range metricKeys {
		v, present := fields[field]
		if !present || v == nil {
			continue
		}
		n, ok := analysis.NormalizeNumber(v)
		if !ok {
			continue
		}
		facts[fact] = n
	}
	if v, present := fields["employees"]; present && v != nil {
		if n, ok := analysis.NormalizeNumber(v); ok {
			facts[analysis.FactEmployees] = n
		}
	}

	companyType := model.CompanyTypeGeneral
	if ct, ok := fields["company_type"].(string); ok {
		companyType = model.ParseCompanyType(ct)
	}

	return &model.RawFactSet{
		Facts:              facts,
		CompanyType:        companyType,
		ExternalConfidence: &confidence,
		Context: model.FactContext{
			Currency: currency,
			Unit:     units,
		},
	}, nil
}
