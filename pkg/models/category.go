package models

const (
	CategoryAutomotriz    = "automotriz"
	CategoryDomestico     = "domestico"
	CategoryIndustrial    = "industrial"
	CategoryRefrigeracion = "refrigeracion"
)

var categoryNames = map[string]string{
	CategoryAutomotriz:    "Automotriz",
	CategoryDomestico:     "Doméstico",
	CategoryIndustrial:    "Industrial",
	CategoryRefrigeracion: "Refrigeración",
}

func AllCategories() []string {
	return []string{CategoryAutomotriz, CategoryDomestico, CategoryIndustrial, CategoryRefrigeracion}
}

// CategoryDisplayName falls back to the raw tag for categories it does not know.
func CategoryDisplayName(category string) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return category
}
