package models

// NameRule filtert über den Namen der Compound (eq, contains, startswith, endswith).
type NameRule struct {
	Value string `json:"value" binding:"required"`
	Logic string `json:"logic" binding:"required"`
}

// PropertyRule filtert über eine benannte Property (eq, contains, gte, gt, lte, lt, any).
type PropertyRule struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
	Logic string `json:"logic" binding:"required"`
}

// FilterRequest ist der Body von /data/search/. Ein leerer Filter trifft alle Compounds.
type FilterRequest struct {
	Compound   *NameRule      `json:"compound,omitempty"`
	Properties []PropertyRule `json:"properties,omitempty" binding:"omitempty,dive"`
}
