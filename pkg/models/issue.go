package models

// ValidationIssue describes a single finding. Issues are created fully
// formed and never mutated afterwards.
type ValidationIssue struct {
	Type           string                 `json:"issue_type"`
	Description    string                 `json:"description"`
	Severity       Severity               `json:"severity"`
	SourceValue    interface{}            `json:"source_value,omitempty"`
	TargetValue    interface{}            `json:"target_value,omitempty"`
	AdditionalInfo map[string]interface{} `json:"additional_info,omitempty"`
}
