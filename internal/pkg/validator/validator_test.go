package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-01-01", "1999-12-31"}
	invalid := []string{"2024-13-01", "2024-01-32", "01-01-2024", "", "2024/01/01"}
	for _, d := range valid {
		if _, ok := IsValidDate(d); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", d)
		}
	}
	for _, d := range invalid {
		if _, ok := IsValidDate(d); ok {
			t.Errorf("IsValidDate(%q) = true, want false", d)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"view", "add", "edit"}
	if !IsInSlice("add", slice) {
		t.Error("IsInSlice(add) = false, want true")
	}
	if IsInSlice("delete", slice) {
		t.Error("IsInSlice(delete) = true, want false")
	}
}

func TestCoordinates(t *testing.T) {
	assert.True(t, IsValidLatitude(-6.2))
	assert.False(t, IsValidLatitude(91))
	assert.True(t, IsValidLongitude(106.8))
	assert.False(t, IsValidLongitude(-180.5))
}

type structSample struct {
	BreakType string `json:"break_type" validate:"required,notblank"`
	Reason    string `json:"reason" validate:"required"`
	Note      string `json:"-" validate:"max=3"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Struct(structSample{BreakType: "lunch", Reason: "eat"})
		assert.NoError(t, err)
	})

	t.Run("uses json names and converts errors", func(t *testing.T) {
		err := Struct(structSample{BreakType: "   "})
		require.Error(t, err)

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		m := errs.ToMap()
		assert.Contains(t, m, "break_type")
		assert.Contains(t, m, "reason")
		assert.Equal(t, "break_type cannot be blank", m["break_type"])
	})
}
