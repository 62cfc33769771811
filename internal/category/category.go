package category

// Category is one of the canonical spending categories a budget item is filed under.
type Category string

const (
	Personnel     Category = "Personnel"
	Equipment     Category = "Equipment"
	Supplies      Category = "Supplies"
	Data          Category = "Data"
	Travels       Category = "Travels"
	Dissemination Category = "Dissemination"
	Miscellaneous Category = "Miscellaneous"
)

// All returns the canonical categories in display order.
func All() []Category {
	return []Category{Personnel, Equipment, Supplies, Data, Travels, Dissemination, Miscellaneous}
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, known := range All() {
		if c == known {
			return true
		}
	}

	return false
}

// Parse resolves a category name case-insensitively.
func Parse(s string) (Category, bool) {
	for _, known := range All() {
		if equalFold(string(known), s) {
			return known, true
		}
	}

	return "", false
}
