package services

import (
	"bytes"
	"encoding/json"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// OptionalID distinguishes an absent JSON field from an explicit null
// in partial updates
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// SetID returns an OptionalID holding id
func SetID(id uuid.UUID) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// ClearID returns an OptionalID that nulls the field
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

func (o OptionalID) apply(target **uuid.UUID) {
	if o.Set {
		*target = o.Value
	}
}

// OptionalDate is the calendar date counterpart of OptionalID
type OptionalDate struct {
	Set   bool
	Value *civil.Date
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var d civil.Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// SetDate returns an OptionalDate holding d
func SetDate(d civil.Date) OptionalDate {
	return OptionalDate{Set: true, Value: &d}
}
