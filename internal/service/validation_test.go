package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CustomTags(t *testing.T) {
	v := NewValidator()

	type sample struct {
		VIN   string `json:"vin" validate:"omitempty,vin"`
		Phone string `json:"phone" validate:"omitempty,phone"`
		SKU   string `json:"sku" validate:"omitempty,sku"`
	}

	tests := []struct {
		name  string
		in    sample
		field string
	}{
		{"valid", sample{VIN: "1HGCM82633A004352", Phone: "+919876543210", SKU: "BRK-PAD-01"}, ""},
		{"lowercase vin accepted", sample{VIN: "1hgcm82633a004352"}, ""},
		{"vin with letter O", sample{VIN: "1HGCM82633O004352"}, "vin"},
		{"short vin", sample{VIN: "1HGCM8263"}, "vin"},
		{"phone with spaces", sample{Phone: "98765 43210"}, ""},
		{"short phone", sample{Phone: "12345"}, "phone"},
		{"lowercase sku", sample{SKU: "brk-pad"}, "sku"},
		{"sku leading dash", sample{SKU: "-BRK"}, "sku"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidator_FieldMessagesUseJSONNames(t *testing.T) {
	err := NewValidator().Struct(ReviewInput{Rating: 9})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["booking_id"])
	assert.Equal(t, "must be at most 5", verr.Fields["rating"])
	assert.Contains(t, verr.Error(), "booking_id is required")
}
