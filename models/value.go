package models

import (
	"math"
	"strconv"
)

// ValueKind unterscheidet numerische und textuelle Property-Werte.
type ValueKind int

const (
	KindText ValueKind = iota
	KindScalar
)

func (k ValueKind) String() string {
	if k == KindScalar {
		return "scalar"
	}
	return "text"
}

// Value ist das Ergebnis von Sanitize: entweder Scalar oder Text ist gesetzt, je nach Kind.
type Value struct {
	Kind   ValueKind
	Scalar float64
	Text   string
}

// IsScalar meldet, ob der Wert numerisch verglichen wird.
func (v Value) IsScalar() bool { return v.Kind == KindScalar }

// Sanitize klassifiziert einen Rohwert. Parst er als endliche Gleitkommazahl, ist er scalar,
// sonst bleibt er unverändert als Text erhalten.
func Sanitize(raw string) Value {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{Kind: KindText, Text: raw}
	}
	return Value{Kind: KindScalar, Scalar: f}
}

// FormatScalar wandelt einen gespeicherten Zahlenwert zurück in die String-Darstellung der API.
func FormatScalar(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
