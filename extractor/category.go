package extractor

import "strings"

// Category is the canonical role of a party in a process.
type Category string

const (
	CategoryExequente  Category = "EXEQUENTE"  // plaintiff in an execution
	CategoryExecutada  Category = "EXECUTADA"  // defendant in an execution
	CategoryAutor      Category = "AUTOR"      // generic plaintiff
	CategoryReu        Category = "REU"        // generic defendant
	CategoryTerceiro   Category = "TERCEIRO"   // third party
	CategoryAdvogado   Category = "ADVOGADO"   // attorney
	CategoryProcurador Category = "PROCURADOR" // legal representative
)

// categorySynonyms maps raw badge labels to canonical categories.
// Unrecognized labels fall back to TERCEIRO.
var categorySynonyms = map[string]Category{
	"EXEQUENTE":  CategoryExequente,
	"EXECUTADA":  CategoryExecutada,
	"AUTOR":      CategoryAutor,
	"RÉU":        CategoryReu,
	"REU":        CategoryReu,
	"REQUERENTE": CategoryAutor,
	"REQUERIDO":  CategoryReu,
	"TERCEIRO":   CategoryTerceiro,
	"ADVOGADO":   CategoryAdvogado,
	"PROCURADOR": CategoryProcurador,
}

var categoryLabels = map[Category]string{
	CategoryExequente:  "Exequente",
	CategoryExecutada:  "Executada",
	CategoryAutor:      "Autor",
	CategoryReu:        "Réu",
	CategoryTerceiro:   "Terceiro",
	CategoryAdvogado:   "Advogado",
	CategoryProcurador: "Procurador",
}

// NormalizeCategory maps a raw label through the synonym table.
func NormalizeCategory(raw string) Category {
	if c, ok := categorySynonyms[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return c
	}
	return CategoryTerceiro
}

// Label returns the human-readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryTerceiro]
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}
