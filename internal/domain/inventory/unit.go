package inventory

import (
	"strings"

	"github.com/erp/inventory/internal/domain/shared"
)

// DefaultUnitCode is the unit applied when a product does not specify one.
const DefaultUnitCode = "NIU"

// unitNames maps the accepted unit codes (SUNAT catalog 03 subset) to
// their display names.
var unitNames = map[string]string{
	"NIU": "Unidad",
	"ZZ":  "Servicio",
	"KGM": "Kilogramo",
	"GRM": "Gramo",
	"LTR": "Litro",
	"MLT": "Mililitro",
	"MTR": "Metro",
	"CMT": "Centimetro",
	"MTK": "Metro cuadrado",
	"MTQ": "Metro cubico",
	"GLL": "Galon",
	"BX":  "Caja",
	"PK":  "Paquete",
	"BG":  "Bolsa",
	"BO":  "Botella",
	"DZN": "Docena",
	"CEN": "Ciento",
	"MIL": "Millar",
	"SET": "Juego",
	"PR":  "Par",
}

// NormalizeUnitCode trims and uppercases a unit code.
func NormalizeUnitCode(code string) string {
	return strings.TrimSpace(strings.ToUpper(code))
}

// IsValidUnitCode reports whether the code belongs to the accepted catalog.
func IsValidUnitCode(code string) bool {
	_, ok := unitNames[NormalizeUnitCode(code)]
	return ok
}

// UnitName returns the display name for a unit code, or the code itself
// when unknown.
func UnitName(code string) string {
	if name, ok := unitNames[NormalizeUnitCode(code)]; ok {
		return name
	}
	return code
}

// ValidateUnitCode normalizes the code and validates it against the catalog.
// An empty code resolves to DefaultUnitCode.
func ValidateUnitCode(code string) (string, error) {
	code = NormalizeUnitCode(code)
	if code == "" {
		return DefaultUnitCode, nil
	}
	if !IsValidUnitCode(code) {
		return "", shared.NewDomainErrorf("INVALID_UNIT", "Unknown unit code: %s", code)
	}
	return code, nil
}
