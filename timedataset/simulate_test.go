package timedataset

import (
	"math/rand/v2"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(start civil.Date, n int) []civil.Date {
	out := make([]civil.Date, n)
	for i := 0; i < n; i++ {
		out[i] = start.AddDays(i)
	}
	return out
}

func TestSeries(t *testing.T) {
	numPnts := 7
	s := Series(GenerateConstY(numPnts, 1))

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series([]float64{3, 3, 3, 3, 3, 3, 3}), res)

	d := days(civil.Date{Year: 1970, Month: time.January, Day: 1}, numPnts)
	s.SetConst(d, 2.0,
		civil.Date{Year: 1970, Month: time.January, Day: 3},
		civil.Date{Year: 1970, Month: time.January, Day: 5},
	)
	assert.Equal(t, Series([]float64{3, 3, 2, 2, 3, 3, 3}), s)

	assert.Equal(t, Series([]float64{3, 3, 3, 2, 2, 3, 3}), s.Lag(1))
}

func TestGenerateChange(t *testing.T) {
	d := days(civil.Date{Year: 2024, Month: time.March, Day: 1}, 5)
	s := GenerateChange(d, d[2], 0.25, 0.01)
	assert.InDeltaSlice(t, []float64{0, 0, 0.25, 0.26, 0.27}, s, 1e-9)
}

func TestGenerateWaveY(t *testing.T) {
	d := days(civil.Date{Year: 1970, Month: time.January, Day: 1}, 5)
	s := GenerateWaveY(d, 2.0, 4.0, 1.0, 0.0)
	assert.InDeltaSlice(t, []float64{0, 2, 0, -2, 0}, s, 1e-9)
}

func TestGenerateRandomIsDeterministic(t *testing.T) {
	a := GenerateRandomWalk(rand.New(rand.NewPCG(1, 2)), 10, 0.05)
	b := GenerateRandomWalk(rand.New(rand.NewPCG(1, 2)), 10, 0.05)
	assert.Equal(t, a, b)
	assert.Equal(t, 0.0, a[0])

	n := GenerateNoise(rand.New(rand.NewPCG(3, 4)), 10, 0.01)
	assert.Len(t, n, 10)
}
