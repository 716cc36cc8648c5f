// Package form holds the editable state behind the menu request form.
package form

import (
	"errors"
	"fmt"
	"strings"

	"seasonal-menu/internal/menu"
)

var (
	ErrUnknownField    = errors.New("unknown form field")
	ErrIndexOutOfRange = errors.New("tag index out of range")
)

// Field names one of the scalar inputs of the form.
type Field string

const (
	FieldLocation  Field = "location"
	FieldSeason    Field = "season"
	FieldPlaceType Field = "place_type"
)

// Submitter accepts a completed request. The lifecycle controller is the
// production implementation.
type Submitter interface {
	Submit(req menu.Request) error
}

// Controller collects a menu.Request from user input. It is not safe for
// concurrent use; each front end owns one controller per user.
type Controller struct {
	req menu.Request
}

// New returns an empty form.
func New() *Controller {
	return &Controller{req: menu.Request{}.Clone()}
}

// UpdateField stores value in field without validating it.
func (c *Controller) UpdateField(field Field, value string) error {
	switch field {
	case FieldLocation:
		c.req.Location = value
	case FieldSeason:
		c.req.Season = value
	case FieldPlaceType:
		c.req.PlaceType = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// AddRestriction appends a trimmed dietary restriction. Blank input is
// ignored; duplicates are kept.
func (c *Controller) AddRestriction(text string) bool {
	return appendTag(&c.req.DietaryRestrictions, text)
}

// AddPreference appends a trimmed cuisine preference.
func (c *Controller) AddPreference(text string) bool {
	return appendTag(&c.req.CuisinePreferences, text)
}

// RemoveRestriction drops the restriction at position i.
func (c *Controller) RemoveRestriction(i int) error {
	return removeTag(&c.req.DietaryRestrictions, i)
}

// RemovePreference drops the preference at position i.
func (c *Controller) RemovePreference(i int) error {
	return removeTag(&c.req.CuisinePreferences, i)
}

// IsValid reports whether location, season and place type are all filled in.
func (c *Controller) IsValid() bool {
	return c.req.IsComplete()
}

// Request returns a copy of the current input.
func (c *Controller) Request() menu.Request {
	return c.req.Clone()
}

// Submit hands the current request to s. An incomplete form is a silent
// no-op and reports false; the form is never cleared by submitting.
func (c *Controller) Submit(s Submitter) (bool, error) {
	if !c.IsValid() {
		return false, nil
	}
	if err := s.Submit(c.Request()); err != nil {
		return false, err
	}
	return true, nil
}

// Clear returns the form to its initial empty state.
func (c *Controller) Clear() {
	c.req = menu.Request{}.Clone()
}

func appendTag(tags *[]string, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	*tags = append(*tags, text)
	return true
}

func removeTag(tags *[]string, i int) error {
	if i < 0 || i >= len(*tags) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(*tags))
	}
	out := make([]string, 0, len(*tags)-1)
	out = append(out, (*tags)[:i]...)
	out = append(out, (*tags)[i+1:]...)
	*tags = out
	return nil
}
