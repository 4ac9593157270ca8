package nlu

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gustavohm/granabot/internal/common"
	"github.com/gustavohm/granabot/internal/model"
)

// HighConfidence is the threshold above which a response no longer needs an
// explicit user confirmation on its own account.
const HighConfidence = 0.85

// rawResponse mirrors the JSON shape the inference service is asked for.
// Everything is optional; normalization fills the gaps.
type rawResponse struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Data       *rawData `json:"data"`
}

type rawData struct {
	Amount       *float64 `json:"amount"`
	Category     string   `json:"category"`
	Source       string   `json:"source"`
	Account      string   `json:"account"`
	FromAccount  string   `json:"from_account"`
	ToAccount    string   `json:"to_account"`
	Goal         string   `json:"goal"`
	Description  string   `json:"description"`
	Installments *int     `json:"installments"`
	Date         string   `json:"date"`
}

// normalizeResponse turns the raw inference output into a well-formed
// AIResponse. It never fails: anything unparseable degrades to intent
// unknown with zero confidence.
func normalizeResponse(raw string) model.AIResponse {
	parsed, err := decodeRaw(raw)
	if err != nil {
		return degradedResponse()
	}

	intent := model.ParseIntent(parsed.Intent)
	confidence := clampConfidence(parsed.Confidence)

	resp := model.AIResponse{
		Intent:               intent,
		Confidence:           confidence,
		RequiresConfirmation: confidence < HighConfidence,
	}
	if intent == model.IntentUnknown {
		return resp
	}
	resp.Data = buildData(intent, parsed.Data)
	return resp
}

// decodeRaw extracts the JSON object from the raw output; models wrap JSON in
// markdown fences or prose often enough that we cut between the first "{" and
// the last "}" before unmarshalling.
func decodeRaw(raw string) (*rawResponse, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in output", common.ErrMalformedResponse)
	}

	var parsed rawResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return &parsed, nil
}

func degradedResponse() model.AIResponse {
	return model.AIResponse{
		Intent:               model.IntentUnknown,
		Confidence:           0,
		RequiresConfirmation: true,
	}
}

func clampConfidence(c *float64) float64 {
	if c == nil || math.IsNaN(*c) {
		return 0
	}
	if *c < 0 {
		return 0
	}
	if *c > 1 {
		return 1
	}
	return *c
}

// buildData constructs the intent-specific variant from the loose payload.
func buildData(intent model.Intent, data *rawData) model.ExtractedData {
	if data == nil {
		data = &rawData{}
	}

	amount := normalizeAmount(data.Amount)
	date := parseDate(data.Date)

	switch intent {
	case model.IntentRegisterExpense:
		return model.ExpenseData{
			AmountCents:      amount,
			Date:             date,
			CategoryHint:     strings.TrimSpace(data.Category),
			AccountHint:      strings.TrimSpace(data.Account),
			Description:      strings.TrimSpace(data.Description),
			InstallmentCount: normalizeInstallments(data.Installments),
		}
	case model.IntentRegisterIncome:
		return model.IncomeData{
			AmountCents: amount,
			Date:        date,
			SourceHint:  strings.TrimSpace(data.Source),
			AccountHint: strings.TrimSpace(data.Account),
			Description: strings.TrimSpace(data.Description),
		}
	case model.IntentTransfer:
		return model.TransferData{
			AmountCents:     amount,
			FromAccountHint: strings.TrimSpace(data.FromAccount),
			ToAccountHint:   strings.TrimSpace(data.ToAccount),
			GoalHint:        strings.TrimSpace(data.Goal),
		}
	case model.IntentQueryBalance, model.IntentQueryCategory, model.IntentQueryGoal, model.IntentQueryAccount:
		var month *time.Time
		if date != nil {
			month = date
		}
		return model.QueryData{
			CategoryHint: strings.TrimSpace(data.Category),
			GoalHint:     strings.TrimSpace(data.Goal),
			AccountHint:  strings.TrimSpace(data.Account),
			Month:        month,
		}
	default:
		return nil
	}
}

// normalizeAmount converts a stated major-unit amount into integer minor
// units. Absent and exactly-zero both normalize to nil: zero is never a
// stated amount coming out of the inference step, only a placeholder.
func normalizeAmount(amount *float64) *int64 {
	if amount == nil || *amount == 0 || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return nil
	}
	cents := int64(math.Round(*amount * 100))
	if cents == 0 {
		return nil
	}
	return &cents
}

// normalizeInstallments keeps counts inside [2,24]; anything else means the
// purchase is not treated as an installment purchase at all.
func normalizeInstallments(count *int) int {
	if count == nil {
		return 0
	}
	if *count < 2 || *count > 24 {
		return 0
	}
	return *count
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
