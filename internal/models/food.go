package models

// Food is a candidate returned by the Fitbit food search. Candidates are
// immutable once fetched and keep the order the search returned them in.
type Food struct {
	FoodID             int64   `json:"food_id"`
	Name               string  `json:"name"`
	Brand              string  `json:"brand,omitempty"`
	DefaultUnitID      int64   `json:"default_unit_id"`
	DefaultUnitName    string  `json:"default_unit_name,omitempty"`
	DefaultUnitPlural  string  `json:"default_unit_plural,omitempty"`
	DefaultServingSize float64 `json:"default_serving_size"`
}

// UnitLabel returns the unit name to speak for amount.
func (f Food) UnitLabel(amount float64) string {
	if amount != 1 && f.DefaultUnitPlural != "" {
		return f.DefaultUnitPlural
	}
	return f.DefaultUnitName
}

// MealLogEntry is a single food log submitted to Fitbit. It is never read
// back; ownership passes to Fitbit on submission.
type MealLogEntry struct {
	FoodID     int64
	MealTypeID MealSlot
	UnitID     int64
	Amount     float64
	Date       string // YYYY-MM-DD in the reference time zone
}
