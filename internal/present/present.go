// Package present turns lifecycle data into view models shared by the web
// and terminal front ends.
package present

import (
	"fmt"
	"strings"

	"seasonal-menu/internal/menu"
)

// Fixed copy shown by every front end.
const (
	TitleLoading       = "Crafting Your Menu"
	SubtitleLoading    = "Our AI chef is analyzing seasonal ingredients and creating personalized dishes for your location..."
	TitleFailed        = "Menu Generation Failed"
	ActionRetry        = "Try Again"
	ActionBackToForm   = "Back to Menu Generator"
	ActionGenerateMore = "Generate Another Menu"
	ActionGenerate     = "Generate Menu"

	ToastSuccessTitle  = "Menu Generated Successfully!"
	ToastSuccessDetail = "Your personalized seasonal menu is ready."
	ToastFailureTitle  = "Generation Failed"
)

type slotInfo struct {
	label string
	icon  string
	hours string
}

var slots = map[menu.Slot]slotInfo{
	menu.SlotBreakfast: {label: "Breakfast", icon: "🌅", hours: "7:00 - 10:00 AM"},
	menu.SlotLunch:     {label: "Lunch", icon: "☀️", hours: "12:00 - 3:00 PM"},
	menu.SlotDinner:    {label: "Dinner", icon: "🌙", hours: "6:00 - 10:00 PM"},
}

// MealView is one dish card.
type MealView struct {
	Slot        menu.Slot
	Label       string
	Icon        string
	Hours       string
	Name        string
	Description string
	Ingredients []string
}

// DayView is one day card with its meals in serving order.
type DayView struct {
	Name  string
	Meals []MealView
}

// MenuView is everything the success screen shows.
type MenuView struct {
	Location      string
	Season        string
	PlaceType     string
	Days          []DayView
	TotalMeals    int
	DayCount      int
	SeasonalFocus string
}

// BuildMenu lays out resp for the request that produced it. Day order is
// the order the service returned.
func BuildMenu(req menu.Request, resp menu.Response) MenuView {
	view := MenuView{
		Location:      req.Location,
		Season:        req.Season,
		PlaceType:     req.PlaceType,
		Days:          make([]DayView, 0, resp.Len()),
		TotalMeals:    resp.TotalMeals(),
		DayCount:      resp.Len(),
		SeasonalFocus: strings.TrimSpace(req.Season + " Produce"),
	}
	for _, day := range resp.Days {
		dv := DayView{Name: day.Name, Meals: make([]MealView, 0, len(menu.Slots))}
		for _, slot := range menu.Slots {
			item := day.Menu.Meal(slot)
			info := slots[slot]
			dv.Meals = append(dv.Meals, MealView{
				Slot:        slot,
				Label:       info.label,
				Icon:        info.icon,
				Hours:       info.hours,
				Name:        item.Name,
				Description: item.Description,
				Ingredients: append([]string(nil), item.SeasonalIngredients...),
			})
		}
		view.Days = append(view.Days, dv)
	}
	return view
}

// Badges returns the header labels in display order.
func (v MenuView) Badges() []string {
	return []string{v.Location, v.Season, v.PlaceType}
}

// Markdown renders v for terminal output.
func Markdown(v MenuView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Seasonal Menu for %s\n\n", v.Location))
	sb.WriteString(fmt.Sprintf("**%s** · **%s** · **%s**\n\n", v.Location, v.Season, v.PlaceType))

	for _, day := range v.Days {
		sb.WriteString(fmt.Sprintf("## %s\n\n", day.Name))
		for _, meal := range day.Meals {
			sb.WriteString(fmt.Sprintf("### %s %s _(%s)_\n\n", meal.Icon, meal.Label, meal.Hours))
			sb.WriteString(fmt.Sprintf("**%s**\n\n", meal.Name))
			if meal.Description != "" {
				sb.WriteString(meal.Description + "\n\n")
			}
			if len(meal.Ingredients) > 0 {
				sb.WriteString("Seasonal ingredients: `" + strings.Join(meal.Ingredients, "` `") + "`\n\n")
			}
		}
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("- Total meals: %d\n", v.TotalMeals))
	sb.WriteString(fmt.Sprintf("- Menu days: %d\n", v.DayCount))
	sb.WriteString(fmt.Sprintf("- Seasonal focus: %s\n", v.SeasonalFocus))
	return sb.String()
}
