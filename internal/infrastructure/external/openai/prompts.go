package openai

import (
	"encoding/json"
	"fmt"

	"github.com/restobooks/vendor-recon/internal/application/port"
)

const systemPrompt = `You are a vendor statement reconciliation assistant for a restaurant operations platform. Given one statement line and a list of candidate invoices, decide whether any candidate is the invoice the line bills for. Consider product naming variants, supplier typos, partial deliveries, and date offsets from delivery versus billing. Always respond with a JSON object of the form {"matched": bool, "invoice_id": number or null, "confidence": number between 0 and 1, "rationale": string}. Only set matched to true when one specific candidate is the right invoice.`

// buildMatchPrompt renders the bounded candidate context for one line.
func buildMatchPrompt(req *port.SemanticMatchRequest) (string, error) {
	candidates, err := json.MarshalIndent(req.Candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidates: %w", err)
	}

	prompt := fmt.Sprintf(`Statement line:
- description: %q
- date: %s
- amount: %s`,
		req.LineDescription, req.LineDate, req.LineAmount)

	if req.InvoiceNumber != "" {
		prompt += fmt.Sprintf("\n- cited invoice number: %s", req.InvoiceNumber)
	}
	if req.ReferenceNumber != "" {
		prompt += fmt.Sprintf("\n- reference number: %s", req.ReferenceNumber)
	}

	prompt += fmt.Sprintf(`

Candidate invoices (deterministic scores included):
%s

Which candidate, if any, does this statement line bill for?`, candidates)

	return prompt, nil
}
