package hash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestFloats(t *testing.T) {
	a := Floats([]float64{1, 2}, []float64{3})
	b := Floats([]float64{1, 2}, []float64{3})
	c := Floats([]float64{1}, []float64{2, 3})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, Floats([]float64{0}), Floats([]float64{math.Copysign(0, -1)}), "sign of zero is significant")
}

func BenchmarkFloats(b *testing.B) {
	vec := make([]float64, 64)
	for i := range vec {
		vec[i] = float64(i) * 0.5
	}
	for b.Loop() {
		Floats(vec, vec)
	}
}
