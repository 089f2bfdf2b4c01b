package models

import (
	"sort"
	"time"
)

// Compound repräsentiert eine chemische Verbindung mit ihren Properties.
// Beim Löschen einer Compound werden ihre Properties per Fremdschlüssel mitgelöscht.
type Compound struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"compound" gorm:"size:127;not null;index"`

	ScalarProperties []ScalarProperty `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TextProperties   []TextProperty   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Compound) TableName() string {
	return "compounds"
}

// ScalarProperty ist eine numerische Eigenschaft einer Compound.
type ScalarProperty struct {
	ID         uint    `gorm:"primaryKey"`
	CompoundID uint    `gorm:"index;not null"`
	Position   int     `gorm:"not null;default:0"` // Index im Add-Request
	Name       string  `gorm:"size:127;not null;index"`
	Value      float64 `gorm:"not null"`
}

func (ScalarProperty) TableName() string { return "scalar_properties" }

// TextProperty ist eine textuelle Eigenschaft einer Compound.
type TextProperty struct {
	ID         uint   `gorm:"primaryKey"`
	CompoundID uint   `gorm:"index;not null"`
	Position   int    `gorm:"not null;default:0"`
	Name       string `gorm:"size:127;not null;index"`
	Value      string `gorm:"size:127;not null"`
}

func (TextProperty) TableName() string { return "text_properties" }

// NewCompound baut aus einem API-Payload das Datenbankmodell. Die Variante jeder Property
// wird hier einmalig über Sanitize festgelegt.
func NewCompound(p CompoundPayload) Compound {
	c := Compound{Name: p.Compound}
	for i, prop := range p.Properties {
		v := Sanitize(prop.Value)
		if v.IsScalar() {
			c.ScalarProperties = append(c.ScalarProperties, ScalarProperty{Position: i, Name: prop.Name, Value: v.Scalar})
		} else {
			c.TextProperties = append(c.TextProperties, TextProperty{Position: i, Name: prop.Name, Value: v.Text})
		}
	}
	return c
}

// Properties liefert die Vereinigung aus Scalar- und Text-Properties in Einfügereihenfolge.
func (c Compound) Properties() []PropertyPayload {
	type positioned struct {
		pos  int
		prop PropertyPayload
	}
	all := make([]positioned, 0, len(c.ScalarProperties)+len(c.TextProperties))
	for _, p := range c.ScalarProperties {
		all = append(all, positioned{p.Position, PropertyPayload{Name: p.Name, Value: FormatScalar(p.Value)}})
	}
	for _, p := range c.TextProperties {
		all = append(all, positioned{p.Position, PropertyPayload{Name: p.Name, Value: p.Value}})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	props := make([]PropertyPayload, len(all))
	for i, p := range all {
		props[i] = p.prop
	}
	return props
}

// Payload wandelt das Modell in die API-Darstellung um.
func (c Compound) Payload() CompoundPayload {
	return CompoundPayload{ID: c.ID, Compound: c.Name, Properties: c.Properties()}
}
