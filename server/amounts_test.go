package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmounts_Parse(t *testing.T) {
	a := Amounts{Decimals: 2}

	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "100", want: 10000},
		{in: "1.5", want: 150},
		{in: "0.01", want: 1},
		{in: "0", want: 0},
		{in: "1.005", wantErr: true}, // more precision than configured
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := a.Parse(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestAmounts_Format(t *testing.T) {
	a := Amounts{Decimals: 2}

	assert.Equal(t, "100", a.Format(10000))
	assert.Equal(t, "1.5", a.Format(150))
	assert.Equal(t, "0.01", a.Format(1))
	assert.Equal(t, "0", a.Format(0))
}

func TestAmounts_RoundTrip(t *testing.T) {
	a := Amounts{Decimals: 9}

	for _, v := range []uint64{0, 1, 999_999_999, 1_000_000_000, 123_456_789_012} {
		got, err := a.Parse(a.Format(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
