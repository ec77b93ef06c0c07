package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidLocation = errors.New("invalid location")

var validate = validator.New()

type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Location identifies the place a lookup is for. Exactly one of Zipcode or
// Coords must be set.
type Location struct {
	Zipcode string       `json:"zipcode,omitempty" validate:"required_without=Coords,excluded_with=Coords"`
	Coords  *Coordinates `json:"coords,omitempty" validate:"required_without=Zipcode,excluded_with=Zipcode"`
}

func ZipLocation(zipcode string) Location {
	return Location{Zipcode: zipcode}
}

func CoordLocation(lat, lon float64) Location {
	return Location{Coords: &Coordinates{Latitude: lat, Longitude: lon}}
}

func (l Location) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return nil
}

func (l Location) String() string {
	if l.Coords != nil {
		return strconv.FormatFloat(l.Coords.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(l.Coords.Longitude, 'f', -1, 64)
	}
	return "zip:" + l.Zipcode
}
