package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"cloud.google.com/go/civil"
	"gonum.org/v1/gonum/floats"
)

var epoch = civil.Date{Year: 1970, Month: time.January, Day: 1}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites values dated within [start, end).
func (s Series) SetConst(dates []civil.Date, val float64, start, end civil.Date) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		if !dates[i].Before(start) && dates[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// Lag returns a copy of s delayed by k observations, repeating the first value to fill the
// start. A lagged actual series is a naive forecast.
func (s Series) Lag(k int) Series {
	out := make(Series, len(s))
	for i := range s {
		j := i - k
		if j < 0 {
			j = 0
		}
		out[i] = s[j]
	}
	return out
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateWaveY produces a sine wave with the period expressed in days.
func GenerateWaveY(dates []civil.Date, amp, periodDays, order, offsetDays float64) Series {
	n := len(dates)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		day := float64(dates[i].DaysSince(epoch))
		val := amp * math.Sin(2.0*math.Pi*order/periodDays*(day+offsetDays))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise draws n normally distributed values scaled by noiseScale.
func GenerateNoise(r *rand.Rand, n int, noiseScale float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, r.NormFloat64()*noiseScale)
	}
	return Series(y)
}

// GenerateRandomWalk accumulates normally distributed steps starting at zero.
func GenerateRandomWalk(r *rand.Rand, n int, stepScale float64) Series {
	y := make([]float64, n)
	var level float64
	for i := 0; i < n; i++ {
		y[i] = level
		level += r.NormFloat64() * stepScale
	}
	return Series(y)
}

// GenerateChange adds a level shift of bias at chpt plus slope per day afterwards.
func GenerateChange(dates []civil.Date, chpt civil.Date, bias, slope float64) Series {
	n := len(dates)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if !dates[i].Before(chpt) {
			y[i] = bias + slope*float64(dates[i].DaysSince(chpt))
		}
	}
	return Series(y)
}
