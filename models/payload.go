package models

// PropertyPayload ist eine Property in Requests und Responses. Der Wert wird immer als String übertragen.
type PropertyPayload struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// CompoundPayload ist die API-Darstellung einer Compound (add, batchadd, search).
type CompoundPayload struct {
	ID         uint              `json:"id,omitempty"`
	Compound   string            `json:"compound" binding:"required"`
	Properties []PropertyPayload `json:"properties" binding:"required,dive"`
}
