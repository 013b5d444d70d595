// prompt.go builds the structured audit prompt sent to the reasoning
// service.
package oracle

import "strings"

// auditSystemPrompt instructs the oracle to behave as a logistics auditor
// and reply strictly in the report schema.
const auditSystemPrompt = `You are a logistics delivery auditor. You receive a photograph of delivered goods and the accompanying delivery document (as a photograph or as extracted text). Compare the goods against the document and respond with ONLY a JSON object, no prose, matching exactly this schema:
{
  "status": "pass" | "attention" | "fail",
  "physical_analysis": {"packaging_condition": string, "item_count_estimate": number, "visible_damage": boolean, "notes": string},
  "document_analysis": {"document_type": string, "reference": string, "declared_quantity": number, "legible": boolean, "notes": string},
  "anomalies": [{"category": string, "description": string, "severity": "low" | "medium" | "high"}],
  "recommendation": {"action": string, "priority": "low" | "medium" | "high", "note": string}
}`

// degradedAccuracyNotice is appended when the user forced the audit past a
// blurry verdict; it is also stored with the result so downstream readers
// see the disclaimer.
const degradedAccuracyNotice = "NOTE: the document image failed the sharpness check and was submitted on an explicit user override. Treat extracted numbers and references as low confidence and say so in your notes."

// BuildUserPrompt assembles the user-turn text for an audit. Image parts
// are attached separately by the client; this covers the textual portion.
func BuildUserPrompt(input AuditInput) string {
	var b strings.Builder

	b.WriteString("Audit this delivery. The first image is the delivered goods.")

	if input.DocumentImage != nil {
		b.WriteString(" The second image is the delivery document.")
	}

	if input.DocumentText != "" {
		b.WriteString("\n\nThe delivery document was supplied as a PDF; its extracted text follows:\n\n")
		b.WriteString(input.DocumentText)
	}

	if input.Degraded {
		b.WriteString("\n\n")
		b.WriteString(degradedAccuracyNotice)
	}

	return b.String()
}
