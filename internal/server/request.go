package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sells-group/evmap/internal/geodata"
	"github.com/sells-group/evmap/internal/model"
)

// LocationRequest is the body of a create or update call.
type LocationRequest struct {
	Name        string   `json:"name" validate:"required,max=500"`
	Type        string   `json:"type" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	MapsLink    string   `json:"maps_link" validate:"omitempty,url"`
}

// check validates the request and its coordinate pair.
func (req *LocationRequest) check(v *validator.Validate) error {
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if (req.Longitude == nil) != (req.Latitude == nil) {
		return errors.New("longitude and latitude must be set together")
	}
	return nil
}

// apply copies the request onto loc, deriving the maps link from the
// coordinates when none was given.
func (req *LocationRequest) apply(loc *model.Location) {
	loc.Name = req.Name
	loc.Type = req.Type
	loc.Description = req.Description
	loc.Longitude = req.Longitude
	loc.Latitude = req.Latitude
	loc.MapsLink = req.MapsLink
	if loc.MapsLink == "" && loc.HasCoordinates() {
		loc.MapsLink = geodata.MapsLink(*loc.Latitude, *loc.Longitude)
	}
}
