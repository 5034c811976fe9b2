package device

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Column limits shared with the relational schema.
const (
	MaxNameLength     = 200
	MaxTypeLength     = 100
	MaxLocationLength = 200
	MaxSerialLength   = 100
)

// RegisterInput carries the fields of a device registration.
type RegisterInput struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Location       string  `json:"location"`
	IsOnline       bool    `json:"isOnline"`
	ThresholdWatts *int    `json:"thresholdWatts,omitempty"`
	SerialNumber   *string `json:"serialNumber,omitempty"`
}

// Validate checks the required fields and column limits.
func (in RegisterInput) Validate() error {
	return validateFields(in.Name, in.Type, in.Location, in.ThresholdWatts, in.SerialNumber)
}

func (in RegisterInput) normalize() RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Location = strings.TrimSpace(in.Location)
	in.SerialNumber = trimOptional(in.SerialNumber)
	in.ThresholdWatts = cloneInt(in.ThresholdWatts)
	return in
}

// UpdateInput replaces every mutable field of a device. Omitted optional
// fields are cleared, not preserved.
type UpdateInput struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Location       string  `json:"location"`
	IsOnline       bool    `json:"isOnline"`
	ThresholdWatts *int    `json:"thresholdWatts,omitempty"`
	SerialNumber   *string `json:"serialNumber,omitempty"`
}

// Validate checks the required fields and column limits.
func (in UpdateInput) Validate() error {
	return validateFields(in.Name, in.Type, in.Location, in.ThresholdWatts, in.SerialNumber)
}

func (in UpdateInput) normalize() UpdateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Location = strings.TrimSpace(in.Location)
	in.SerialNumber = trimOptional(in.SerialNumber)
	in.ThresholdWatts = cloneInt(in.ThresholdWatts)
	return in
}

// apply copies the mutable fields onto d.
func (in UpdateInput) apply(d Device) Device {
	d.Name = in.Name
	d.Type = in.Type
	d.Location = in.Location
	d.IsOnline = in.IsOnline
	d.ThresholdWatts = cloneInt(in.ThresholdWatts)
	d.SerialNumber = cloneString(in.SerialNumber)
	return d
}

type fieldSet struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Location       string  `json:"location"`
	ThresholdWatts *int    `json:"thresholdWatts"`
	SerialNumber   *string `json:"serialNumber"`
}

func validateFields(name, typ, location string, threshold *int, serial *string) error {
	f := fieldSet{
		Name:           name,
		Type:           typ,
		Location:       location,
		ThresholdWatts: threshold,
		SerialNumber:   serial,
	}
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(1, MaxNameLength)),
		validation.Field(&f.Type, validation.Required, validation.RuneLength(1, MaxTypeLength)),
		validation.Field(&f.Location, validation.RuneLength(0, MaxLocationLength)),
		validation.Field(&f.ThresholdWatts, validation.Min(0)),
		validation.Field(&f.SerialNumber, validation.RuneLength(0, MaxSerialLength)),
	)
	return validationError(err)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
