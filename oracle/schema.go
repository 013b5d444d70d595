// Package oracle provides the client for the external multimodal reasoning
// service that performs the actual logistics audit. The service is an
// opaque collaborator: freightaudit sends a structured prompt plus the
// uploaded images and receives a JSON report matching the fixed schema in
// this file. Nothing in this package inspects or second-guesses the
// report's content.
//
// schema.go defines the report schema and the inbound payload types.
package oracle

// InspectionStatus is the oracle's overall conclusion for a delivery.
type InspectionStatus string

const (
	// StatusPass means goods and paperwork agree.
	StatusPass InspectionStatus = "pass"
	// StatusAttention means discrepancies were found that need review.
	StatusAttention InspectionStatus = "attention"
	// StatusFail means the delivery does not match its documentation.
	StatusFail InspectionStatus = "fail"
)

// PhysicalAnalysis describes what the oracle saw in the goods photograph.
type PhysicalAnalysis struct {
	PackagingCondition string `json:"packaging_condition"`
	ItemCountEstimate  int    `json:"item_count_estimate"`
	VisibleDamage      bool   `json:"visible_damage"`
	Notes              string `json:"notes"`
}

// DocumentAnalysis describes what the oracle read in the document.
type DocumentAnalysis struct {
	DocumentType string `json:"document_type"`
	Reference    string `json:"reference"`
	DeclaredQty  int    `json:"declared_quantity"`
	Legible      bool   `json:"legible"`
	Notes        string `json:"notes"`
}

// Anomaly is a single discrepancy between goods and documentation.
type Anomaly struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Recommendation is the oracle's suggested follow-up.
type Recommendation struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
	Note     string `json:"note"`
}

// InspectionReport is the fixed response schema of the reasoning service.
type InspectionReport struct {
	Status         InspectionStatus `json:"status"`
	Physical       PhysicalAnalysis `json:"physical_analysis"`
	Document       DocumentAnalysis `json:"document_analysis"`
	Anomalies      []Anomaly        `json:"anomalies"`
	Recommendation Recommendation   `json:"recommendation"`

	// DegradedAccuracy is set by the caller, not the oracle, when the
	// audit proceeded past a blurry verdict on an explicit override.
	DegradedAccuracy bool `json:"degraded_accuracy,omitempty"`
}

// ImagePayload is one uploaded image with its declared MIME type.
type ImagePayload struct {
	Data []byte
	MIME string
}

// AuditInput is everything the oracle needs for one audit.
type AuditInput struct {
	// GoodsImage is the photograph of the delivered goods.
	GoodsImage ImagePayload

	// DocumentImage is the photograph of the accompanying document.
	// Nil when the document was supplied as a PDF and extracted locally.
	DocumentImage *ImagePayload

	// DocumentText is the locally extracted text of a PDF document.
	// Empty when the document was supplied as a photograph.
	DocumentText string

	// Degraded marks the audit as proceeding past a blurry verdict on an
	// explicit user override.
	Degraded bool
}
