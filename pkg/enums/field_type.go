package enums

import "fmt"

// FieldType is the advisory input kind of a service-declared field. It is not
// re-validated beyond presence; it only drives client-side rendering.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypePassword FieldType = "password"
	FieldTypeEmail    FieldType = "email"
	FieldTypeUsername FieldType = "username"
)

var validFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypePassword,
	FieldTypeEmail,
	FieldTypeUsername,
}

func (f FieldType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FieldType.
func (f FieldType) IsValid() bool {
	for _, candidate := range validFieldTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFieldType converts raw input into a FieldType.
func ParseFieldType(value string) (FieldType, error) {
	for _, candidate := range validFieldTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid field type %q", value)
}
