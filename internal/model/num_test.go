package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNum(t *testing.T) {
	tests := []struct {
		in   string
		want Num
	}{
		{"", NA},
		{"NA", NA},
		{"na", NA},
		{"NaN", NA},
		{"-", NA},
		{"abc", NA},
		{"0", Some(0)},
		{" 12.5 ", Some(12.5)},
		{"1,200", Some(1200)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNum(tt.in))
		})
	}
}

func TestNum_Mul(t *testing.T) {
	assert.Equal(t, Some(48), Some(6).Mul(Some(8)))
	assert.Equal(t, Some(0), Some(0).Mul(Some(1.2)))
	assert.Equal(t, NA, Some(0).Mul(NA))
	assert.Equal(t, NA, NA.Mul(Some(3)))
}

func TestNum_Or(t *testing.T) {
	assert.Equal(t, Some(1), Some(1).Or(Some(2)))
	assert.Equal(t, Some(2), NA.Or(Some(2)))
}

func TestNum_String(t *testing.T) {
	assert.Equal(t, "NA", NA.String())
	assert.Equal(t, "57.6", Some(57.6).String())
	assert.Equal(t, "0", Some(0).String())
}

func TestNum_JSON(t *testing.T) {
	data, err := json.Marshal([]Num{Some(1.5), NA})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,null]`, string(data))

	var back []Num
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Num{Some(1.5), NA}, back)
}

func TestNum_Ptr(t *testing.T) {
	assert.Nil(t, NA.Ptr())
	p := Some(3).Ptr()
	require.NotNil(t, p)
	assert.Equal(t, 3.0, *p)
	assert.Equal(t, Some(3), NumFromPtr(p))
	assert.Equal(t, NA, NumFromPtr(nil))
}
