package models

import "time"

// MealSlot is a Fitbit meal type id.
type MealSlot int

// MealSlot enum values, numbered as Fitbit's mealTypeId.
const (
	Breakfast      MealSlot = 1
	MorningSnack   MealSlot = 2
	Lunch          MealSlot = 3
	AfternoonSnack MealSlot = 4
	Dinner         MealSlot = 5
	Anytime        MealSlot = 7
)

// MealSlots lists every slot MealSlotForHour can return.
var MealSlots = []MealSlot{Breakfast, MorningSnack, Lunch, AfternoonSnack, Dinner, Anytime}

// String returns the spoken name of the slot.
func (m MealSlot) String() string {
	switch m {
	case Breakfast:
		return "breakfast"
	case MorningSnack:
		return "morning snack"
	case Lunch:
		return "lunch"
	case AfternoonSnack:
		return "afternoon snack"
	case Dinner:
		return "dinner"
	case Anytime:
		return "anytime"
	default:
		return "unknown"
	}
}

// MealSlotForHour maps a local hour to a meal slot using half-open ranges.
// Hours outside [0,23] fall through to Anytime.
func MealSlotForHour(hour int) MealSlot {
	switch {
	case 6 <= hour && hour < 11:
		return Breakfast
	case 11 <= hour && hour < 12:
		return MorningSnack
	case 12 <= hour && hour < 16:
		return Lunch
	case 16 <= hour && hour < 18:
		return AfternoonSnack
	case 18 <= hour && hour < 21:
		return Dinner
	default:
		return Anytime
	}
}

// NewMealLogEntry builds the entry for food logged at the given instant.
// The meal slot and calendar date are taken from now in loc.
func NewMealLogEntry(food Food, amount float64, now time.Time, loc *time.Location) MealLogEntry {
	local := now.In(loc)
	return MealLogEntry{
		FoodID:     food.FoodID,
		MealTypeID: MealSlotForHour(local.Hour()),
		UnitID:     food.DefaultUnitID,
		Amount:     amount,
		Date:       local.Format("2006-01-02"),
	}
}
