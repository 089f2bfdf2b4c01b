package services

import (
	"fmt"
	"strings"

	"compound-db/models"

	"gorm.io/gorm"
)

// Logic-Werte der Filter-Grammatik.
const (
	LogicEq         = "eq"
	LogicContains   = "contains"
	LogicStartsWith = "startswith"
	LogicEndsWith   = "endswith"
	LogicGt         = "gt"
	LogicGte        = "gte"
	LogicLt         = "lt"
	LogicLte        = "lte"
	LogicAny        = "any"
)

var scalarOperators = map[string]string{
	LogicGt:  ">",
	LogicGte: ">=",
	LogicLt:  "<",
	LogicLte: "<=",
	LogicEq:  "=",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// clause ist ein einzelnes, typisiertes Prädikat über compounds. Alle Clauses werden per AND verknüpft.
type clause interface {
	apply(db *gorm.DB) *gorm.DB
	String() string
}

// nameClause filtert direkt auf compounds.name.
type nameClause struct {
	logic string
	value string
}

func (c nameClause) apply(db *gorm.DB) *gorm.DB {
	switch c.logic {
	case LogicContains:
		return db.Where(likeCondition("compounds.name"), "%"+likeEscaper.Replace(c.value)+"%")
	case LogicStartsWith:
		return db.Where(likeCondition("compounds.name"), likeEscaper.Replace(c.value)+"%")
	case LogicEndsWith:
		return db.Where(likeCondition("compounds.name"), "%"+likeEscaper.Replace(c.value))
	default:
		return db.Where("compounds.name = ?", c.value)
	}
}

func (c nameClause) String() string {
	return fmt.Sprintf("name %s %q", c.logic, c.value)
}

// scalarClause wählt Compounds, von denen mindestens eine ScalarProperty mit passendem Namen
// den Vergleich erfüllt.
type scalarClause struct {
	name  string
	op    string
	value float64
}

func (c scalarClause) apply(db *gorm.DB) *gorm.DB {
	ids := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.ScalarProperty{}).
		Select("scalar_properties.compound_id").
		Where("scalar_properties.name = ?", c.name).
		Where("scalar_properties.value "+c.op+" ?", c.value)
	return db.Where("compounds.id IN (?)", ids)
}

func (c scalarClause) String() string {
	return fmt.Sprintf("scalar %q %s %s", c.name, c.op, models.FormatScalar(c.value))
}

// textClause wählt Compounds über TextProperty-Zeilen (eq oder contains).
type textClause struct {
	name  string
	logic string
	value string
}

func (c textClause) apply(db *gorm.DB) *gorm.DB {
	ids := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.TextProperty{}).
		Select("text_properties.compound_id").
		Where("text_properties.name = ?", c.name)
	if c.logic == LogicContains {
		ids = ids.Where(likeCondition("text_properties.value"), "%"+likeEscaper.Replace(c.value)+"%")
	} else {
		ids = ids.Where("text_properties.value = ?", c.value)
	}
	return db.Where("compounds.id IN (?)", ids)
}

func (c textClause) String() string {
	return fmt.Sprintf("text %q %s %q", c.name, c.logic, c.value)
}

func likeCondition(column string) string {
	return column + ` LIKE ? ESCAPE '\'`
}

// CompiledFilter ist die Liste der Prädikate eines FilterRequest.
type CompiledFilter struct {
	clauses []clause
}

// CompileFilter übersetzt einen FilterRequest in Clauses.
//
// Property-Regeln werden unabhängig voneinander gegen die ganze Property-Tabelle aufgelöst.
// Ob eine Regel numerisch oder textuell ausgewertet wird, entscheidet allein ihr Wert (Sanitize).
// Die Logic von Property-Regeln ist case-insensitive, die der Namensregel nicht.
// Unbekannte Logic (auch "any") trägt nichts bei; mit strict wird sie als ValidationError abgelehnt,
// nur "any" bleibt dann als explizites No-op für Property-Regeln erlaubt.
func CompileFilter(req models.FilterRequest, strict bool) (*CompiledFilter, error) {
	f := &CompiledFilter{}

	for i, rule := range req.Properties {
		logic := strings.ToLower(rule.Logic)
		value := models.Sanitize(rule.Value)

		var c clause
		if value.IsScalar() {
			if op, ok := scalarOperators[logic]; ok {
				c = scalarClause{name: rule.Name, op: op, value: value.Scalar}
			}
		} else if logic == LogicEq || logic == LogicContains {
			c = textClause{name: rule.Name, logic: logic, value: value.Text}
		}

		if c == nil {
			if strict && logic != LogicAny {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("properties[%d].logic", i),
					Reason: fmt.Sprintf("%q is not supported for %s values", rule.Logic, value.Kind),
				}
			}
			continue
		}
		f.clauses = append(f.clauses, c)
	}

	if req.Compound != nil {
		switch req.Compound.Logic {
		case LogicEq, LogicContains, LogicStartsWith, LogicEndsWith:
			f.clauses = append(f.clauses, nameClause{logic: req.Compound.Logic, value: req.Compound.Value})
		default:
			if strict {
				return nil, &ValidationError{
					Field:  "compound.logic",
					Reason: fmt.Sprintf("%q is not one of eq, contains, startswith, endswith", req.Compound.Logic),
				}
			}
		}
	}

	return f, nil
}

// Scope hängt alle Clauses an eine Abfrage auf compounds.
func (f *CompiledFilter) Scope(db *gorm.DB) *gorm.DB {
	for _, c := range f.clauses {
		db = c.apply(db)
	}
	return db
}

// Len gibt die Anzahl wirksamer Clauses zurück.
func (f *CompiledFilter) Len() int { return len(f.clauses) }

// Describe liefert eine lesbare Form der Clauses fürs Logging.
func (f *CompiledFilter) Describe() []string {
	out := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		out[i] = c.String()
	}
	return out
}
