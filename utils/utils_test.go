package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Bio string `json:"bio"`
}

type record struct {
	ID        int64     `json:"id"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Profile   *profile  `json:"profile,omitempty"`
}

func TestStructToMap(t *testing.T) {
	name := "Ada"
	tests := []struct {
		name  string
		input any
		want  map[string]any
	}{
		{
			name: "omits nil pointers",
			input: struct {
				Name *string `json:"name,omitempty"`
				Role string  `json:"role"`
			}{Role: "user"},
			want: map[string]any{"role": "user"},
		},
		{
			name: "pointer to struct",
			input: &struct {
				Name *string `json:"name,omitempty"`
			}{Name: &name},
			want: map[string]any{"name": "Ada"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StructToMap(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructToMap_Errors(t *testing.T) {
	_, err := StructToMap[any](nil)
	assert.Error(t, err)

	var nilRecord *record
	_, err = StructToMap(nilRecord)
	assert.Error(t, err)

	_, err = StructToMap(42)
	assert.Error(t, err)
}

func TestMapToStruct(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := MapToStruct[record](map[string]any{
		"id":         int64(7),
		"name":       "Ada",
		"created_at": created,
		"profile":    map[string]any{"bio": "Analyst"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "Ada", *got.Name)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, &profile{Bio: "Analyst"}, got.Profile)

	_, err = MapToStruct[record](nil)
	assert.Error(t, err)

	_, err = MapToStruct[int](map[string]any{})
	assert.Error(t, err)
}
