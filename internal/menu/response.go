package menu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedResponse marks a payload that does not match the menu shape.
var ErrMalformedResponse = errors.New("malformed menu response")

// Slot is one of the three fixed meals of a day.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

// Slots lists the meals of a day in serving order.
var Slots = []Slot{SlotBreakfast, SlotLunch, SlotDinner}

// Item is a single dish.
type Item struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	SeasonalIngredients []string `json:"seasonal_ingredients"`
}

// Daily holds the three meals of one day.
type Daily struct {
	Breakfast Item `json:"breakfast"`
	Lunch     Item `json:"lunch"`
	Dinner    Item `json:"dinner"`
}

// Meal returns the item served in slot.
func (d Daily) Meal(slot Slot) Item {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	default:
		return d.Dinner
	}
}

// Day pairs a day label ("Monday") with its meals.
type Day struct {
	Name string
	Menu Daily
}

// Response is the weekly menu returned by the service. Days keep the order
// in which the service listed them.
type Response struct {
	Days []Day
}

// NewResponse builds a response from days in display order.
func NewResponse(days ...Day) Response {
	return Response{Days: days}
}

// Len returns the number of days.
func (r Response) Len() int { return len(r.Days) }

// TotalMeals is the number of dishes across the whole menu.
func (r Response) TotalMeals() int { return len(r.Days) * len(Slots) }

// DayNames returns the day labels in display order.
func (r Response) DayNames() []string {
	names := make([]string, 0, len(r.Days))
	for _, d := range r.Days {
		names = append(names, d.Name)
	}
	return names
}

// Day looks a day up by label.
func (r Response) Day(name string) (Daily, bool) {
	for _, d := range r.Days {
		if d.Name == name {
			return d.Menu, true
		}
	}
	return Daily{}, false
}

// DecodeResponse reads a menu from r. Any structural mismatch is reported as
// ErrMalformedResponse.
func DecodeResponse(r io.Reader) (Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read menu response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return Response{}, err
		}
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

// MarshalJSON writes the days as a JSON object in display order.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range r.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		daily := d.Menu
		daily.Breakfast.SeasonalIngredients = nonNil(daily.Breakfast.SeasonalIngredients)
		daily.Lunch.SeasonalIngredients = nonNil(daily.Lunch.SeasonalIngredients)
		daily.Dinner.SeasonalIngredients = nonNil(daily.Dinner.SeasonalIngredients)
		val, err := json.Marshal(daily)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the day mapping, keeping key order and rejecting
// any day that is not a complete menu. An empty object is a menu with no days.
func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected an object keyed by day", ErrMalformedResponse)
	}

	seen := make(map[string]struct{})
	var days []Day
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		name, _ := tok.(string)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: day %q listed twice", ErrMalformedResponse, name)
		}
		seen[name] = struct{}{}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: day %q: %v", ErrMalformedResponse, name, err)
		}
		daily, err := decodeDaily(raw)
		if err != nil {
			return fmt.Errorf("%w: day %q: %v", ErrMalformedResponse, name, err)
		}
		days = append(days, Day{Name: name, Menu: daily})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	r.Days = days
	return nil
}

type wireItem struct {
	Name                *string   `json:"name"`
	Description         *string   `json:"description"`
	SeasonalIngredients *[]string `json:"seasonal_ingredients"`
}

type wireDaily struct {
	Breakfast *wireItem `json:"breakfast"`
	Lunch     *wireItem `json:"lunch"`
	Dinner    *wireItem `json:"dinner"`
}

func decodeDaily(raw json.RawMessage) (Daily, error) {
	var w wireDaily
	if err := json.Unmarshal(raw, &w); err != nil {
		return Daily{}, err
	}
	var out Daily
	for _, slot := range Slots {
		var src *wireItem
		var dst *Item
		switch slot {
		case SlotBreakfast:
			src, dst = w.Breakfast, &out.Breakfast
		case SlotLunch:
			src, dst = w.Lunch, &out.Lunch
		case SlotDinner:
			src, dst = w.Dinner, &out.Dinner
		}
		item, err := src.item()
		if err != nil {
			return Daily{}, fmt.Errorf("%s: %w", slot, err)
		}
		*dst = item
	}
	return out, nil
}

func (w *wireItem) item() (Item, error) {
	switch {
	case w == nil:
		return Item{}, errors.New("missing meal")
	case w.Name == nil:
		return Item{}, errors.New("missing name")
	case w.Description == nil:
		return Item{}, errors.New("missing description")
	case w.SeasonalIngredients == nil:
		return Item{}, errors.New("missing seasonal_ingredients")
	}
	return Item{
		Name:                *w.Name,
		Description:         *w.Description,
		SeasonalIngredients: nonNil(*w.SeasonalIngredients),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
