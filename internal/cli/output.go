// Package cli provides request parsing and result output for the ontomatch CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/ontomatch/internal/mapper"
	"github.com/hyperjump/ontomatch/internal/models"
	"github.com/hyperjump/ontomatch/pkg/utils"
)

// OutputFormat is the format for mapping result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text", "json", or "" (text).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (want text or json)", models.ErrInvalidArgument, s)
	}
}

// ReadRequest decodes a JSON array of source entities.
func ReadRequest(r io.Reader) ([]models.SourceEntityInput, error) {
	var inputs []models.SourceEntityInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("%w: decoding mapping request: %v", models.ErrInvalidArgument, err)
	}
	return inputs, nil
}

// EntityResponse is the outcome for one entity. Exactly one of Suggestions or Error is meaningful.
type EntityResponse struct {
	EntityID    string               `json:"entity_id"`
	Suggestions []*models.Suggestion `json:"suggestions"`
	Error       string               `json:"error,omitempty"`
}

// MapResponse is the outcome of a batch.
type MapResponse struct {
	QueryTime int64            `json:"query_time_ms"`
	Failed    int              `json:"failed"`
	Results   []EntityResponse `json:"results"`
}

// NewMapResponse converts mapper results into the output shape.
func NewMapResponse(results []mapper.Result, elapsed time.Duration) *MapResponse {
	resp := &MapResponse{QueryTime: elapsed.Milliseconds(), Results: make([]EntityResponse, len(results))}
	for i, r := range results {
		er := EntityResponse{EntityID: r.EntityID, Suggestions: r.Suggestions}
		if r.Err != nil {
			er.Error = r.Err.Error()
			er.Suggestions = []*models.Suggestion{}
			resp.Failed++
		} else if er.Suggestions == nil {
			er.Suggestions = []*models.Suggestion{}
		}
		resp.Results[i] = er
	}
	return resp
}

// WriteMapResponse writes resp to w in the given format.
func WriteMapResponse(w io.Writer, resp *MapResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeMapResponseText(w, resp)
		return nil
	}
}

func writeMapResponseText(w io.Writer, resp *MapResponse) {
	fmt.Fprintf(w, "\nMapped %d entities in %dms (%d failed)\n\n", len(resp.Results), resp.QueryTime, resp.Failed)
	for _, r := range resp.Results {
		fmt.Fprintf(w, "=== %s ===\n", r.EntityID)
		if r.Error != "" {
			fmt.Fprintf(w, "error: %s\n\n", r.Error)
			continue
		}
		if len(r.Suggestions) == 0 {
			fmt.Fprintln(w, "no suggestions")
			fmt.Fprintln(w)
			continue
		}
		for i, s := range r.Suggestions {
			writeOneSuggestion(w, i+1, s)
		}
		fmt.Fprintln(w)
	}
}

func writeOneSuggestion(w io.Writer, rank int, s *models.Suggestion) {
	stage := ""
	if s.Details != nil {
		stage = s.Details.Stage
	}
	fmt.Fprintf(w, "[%s] Rank: %d | Score: %.2f (raw %.4f)\n", stage, rank, s.Score, s.RawScore)
	fmt.Fprintf(w, "ID: %s\n", s.UniqueID)
	fmt.Fprintf(w, "Label: %s\n", utils.Truncate(s.TermLabel, 120))
	if s.TermURL != "" {
		fmt.Fprintf(w, "URL: %s\n", s.TermURL)
	}
	if s.Details != nil && len(s.Details.SearchTerms) > 0 {
		terms := make([]string, 0, len(s.Details.SearchTerms))
		for _, t := range s.Details.SearchTerms {
			terms = append(terms, fmt.Sprintf("%s=%q", t.Field, t.Value))
		}
		fmt.Fprintf(w, "Terms: %s\n", strings.Join(terms, ", "))
	}
}
