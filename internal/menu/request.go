package menu

import (
	"errors"
	"fmt"
	"strings"
)

// Season is the time of year the menu is planned for.
type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
)

// Seasons lists every season in display order.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// PlaceType is the kind of establishment the menu is written for.
type PlaceType string

const (
	PlaceRestaurant  PlaceType = "Restaurant"
	PlaceCafe        PlaceType = "Cafe"
	PlaceHotel       PlaceType = "Hotel"
	PlaceCatering    PlaceType = "Catering"
	PlaceHomeKitchen PlaceType = "Home Kitchen"
	PlaceFoodTruck   PlaceType = "Food Truck"
)

// PlaceTypes lists every establishment type in display order.
var PlaceTypes = []PlaceType{
	PlaceRestaurant,
	PlaceCafe,
	PlaceHotel,
	PlaceCatering,
	PlaceHomeKitchen,
	PlaceFoodTruck,
}

// ErrInvalidRequest is returned by Request.Validate.
var ErrInvalidRequest = errors.New("invalid menu request")

// Request is the payload sent to the menu service.
type Request struct {
	Location            string   `json:"location"`
	Season              string   `json:"season"`
	PlaceType           string   `json:"place_type"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	CuisinePreferences  []string `json:"cuisine_preferences"`
}

// IsComplete reports whether the three required scalars are set. The tag
// sequences never affect completeness.
func (r Request) IsComplete() bool {
	return r.Location != "" && r.Season != "" && r.PlaceType != ""
}

// Clone returns a deep copy whose sequences are never nil, so the request
// always serializes its lists as JSON arrays.
func (r Request) Clone() Request {
	out := r
	out.DietaryRestrictions = append(make([]string, 0, len(r.DietaryRestrictions)), r.DietaryRestrictions...)
	out.CuisinePreferences = append(make([]string, 0, len(r.CuisinePreferences)), r.CuisinePreferences...)
	return out
}

// Validate is stricter than IsComplete: it also checks the enumerated fields
// against the known catalogs. Used where input is typed by hand.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Location) == "" {
		problems = append(problems, "location is required")
	}
	if r.Season == "" {
		problems = append(problems, "season is required")
	} else if _, err := ParseSeason(r.Season); err != nil {
		problems = append(problems, err.Error())
	}
	if r.PlaceType == "" {
		problems = append(problems, "place type is required")
	} else if _, err := ParsePlaceType(r.PlaceType); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// ParseSeason matches s case-insensitively against Seasons.
func ParseSeason(s string) (Season, error) {
	for _, season := range Seasons {
		if strings.EqualFold(string(season), strings.TrimSpace(s)) {
			return season, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// ParsePlaceType matches s case-insensitively against PlaceTypes. Dashes and
// underscores are accepted in place of spaces ("food-truck").
func ParsePlaceType(s string) (PlaceType, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, pt := range PlaceTypes {
		if strings.EqualFold(string(pt), norm) {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown place type %q", s)
}
