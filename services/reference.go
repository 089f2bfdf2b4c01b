package services

import (
	"strings"

	"compound-db/models"
)

// LocalSearch wertet einen FilterRequest im Speicher über API-Payloads aus. Es ist eine bewusst
// unabhängige Zweitimplementierung zu CompileFilter und dient als Orakel für die SQL-Variante.
//
// Unterschiede im Kontrollfluss: pro Compound wird je Regel nur die erste Property mit dem
// gesuchten Namen geprüft, gespeicherte Werte werden erneut klassifiziert und "any" trifft immer.
func LocalSearch(compounds []models.CompoundPayload, req models.FilterRequest) []models.CompoundPayload {
	matches := make([]models.CompoundPayload, 0, len(compounds))
	for _, c := range compounds {
		if localMatch(c, req) {
			matches = append(matches, c)
		}
	}
	return matches
}

func localMatch(c models.CompoundPayload, req models.FilterRequest) bool {
	for _, rule := range req.Properties {
		var ok bool
		if models.Sanitize(rule.Value).IsScalar() {
			ok = scalarRuleMatch(c, rule)
		} else {
			ok = textRuleMatch(c, rule)
		}
		if !ok {
			return false
		}
	}
	if req.Compound != nil {
		return nameRuleMatch(c.Compound, *req.Compound)
	}
	return true
}

func nameRuleMatch(name string, rule models.NameRule) bool {
	switch rule.Logic {
	case LogicEq:
		return name == rule.Value
	case LogicStartsWith:
		return strings.HasPrefix(name, rule.Value)
	case LogicEndsWith:
		return strings.HasSuffix(name, rule.Value)
	case LogicContains:
		return strings.Contains(name, rule.Value)
	}
	return true
}

func scalarRuleMatch(c models.CompoundPayload, rule models.PropertyRule) bool {
	logic := strings.ToLower(rule.Logic)
	if logic == LogicAny {
		return true
	}
	prop, found := firstProperty(c, rule.Name)
	if !found {
		return false
	}
	stored := models.Sanitize(prop.Value)
	if !stored.IsScalar() {
		return false
	}
	want := models.Sanitize(rule.Value).Scalar
	have := stored.Scalar

	switch logic {
	case LogicEq:
		return have == want
	case LogicGte:
		return have >= want
	case LogicGt:
		return have > want
	case LogicLte:
		return have <= want
	case LogicLt:
		return have < want
	}
	return true
}

func textRuleMatch(c models.CompoundPayload, rule models.PropertyRule) bool {
	logic := strings.ToLower(rule.Logic)
	if logic == LogicAny {
		return true
	}
	prop, found := firstProperty(c, rule.Name)
	if !found {
		return false
	}
	if models.Sanitize(prop.Value).IsScalar() {
		return false
	}

	switch logic {
	case LogicEq:
		return prop.Value == rule.Value
	case LogicContains:
		return strings.Contains(prop.Value, rule.Value)
	}
	return true
}

func firstProperty(c models.CompoundPayload, name string) (models.PropertyPayload, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return models.PropertyPayload{}, false
}
