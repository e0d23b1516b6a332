package mockbackend

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/timedataset"
)

// bondSeries is the synthetic history of one bond: its yield and the macro features the
// backend would have used, on every trading day.
type bondSeries struct {
	dates     []civil.Date
	actual    timedataset.Series
	features  map[string]timedataset.Series
	testStart int
}

// perturbation describes how far a model's synthetic prediction strays from the actual
// yield: it follows the series lagged by lag observations with normal noise of scale.
type perturbation struct {
	lag   int
	scale float64
	r2    bool
}

var perturbations = map[bondapi.Model]perturbation{
	bondapi.ModelLinearRegression: {lag: 1, scale: 0.06, r2: true},
	bondapi.ModelARIMA:            {lag: 2, scale: 0.12},
	bondapi.ModelLSTM:             {lag: 1, scale: 0.05, r2: true},
	bondapi.ModelXGBoost:          {lag: 0, scale: 0.03, r2: true},
}

var baseYield = map[bondapi.Bond]float64{
	bondapi.Bond3yr:  6.8,
	bondapi.Bond10yr: 7.2,
}

func seedFor(seed uint64, parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

func generateSeries(bond bondapi.Bond, dates []civil.Date, testFraction float64, seed uint64) *bondSeries {
	n := len(dates)
	r := seedFor(seed, string(bond))

	actual := timedataset.GenerateConstY(n, baseYield[bond]).
		Add(timedataset.GenerateRandomWalk(r, n, 0.02)).
		Add(timedataset.GenerateWaveY(dates, 0.15, 365.25, 1.0, 0.0)).
		Add(timedataset.GenerateNoise(r, n, 0.01))

	mid := dates[n/2]
	features := map[string]timedataset.Series{
		"repo_rate": timedataset.GenerateConstY(n, 6.0).
			Add(timedataset.GenerateChange(dates, mid, 0.5, 0.0)),
		"cpi": timedataset.GenerateConstY(n, 5.0).
			Add(timedataset.GenerateWaveY(dates, 1.2, 365.25, 1.0, 90.0)).
			Add(timedataset.GenerateNoise(r, n, 0.1)),
		"crude_oil": timedataset.GenerateConstY(n, 80.0).
			Add(timedataset.GenerateRandomWalk(r, n, 0.8)),
		"usd_inr": timedataset.GenerateConstY(n, 70.0).
			Add(timedataset.GenerateChange(dates, dates[0], 0.0, 0.004)),
	}

	testStart := n - int(float64(n)*testFraction)
	if testStart >= n {
		testStart = n - 1
	}
	if testStart < 0 {
		testStart = 0
	}

	return &bondSeries{
		dates:     dates,
		actual:    actual,
		features:  features,
		testStart: testStart,
	}
}

// index returns the position of d in the series.
func (bs *bondSeries) index(d civil.Date) (int, bool) {
	i := sort.Search(len(bs.dates), func(i int) bool {
		return !bs.dates[i].Before(d)
	})
	if i < len(bs.dates) && bs.dates[i] == d {
		return i, true
	}
	return 0, false
}

// predict returns the model's synthetic prediction over the whole series. The same model
// and bond always produce the same values.
func (bs *bondSeries) predict(model bondapi.Model, bond bondapi.Bond, seed uint64) timedataset.Series {
	p := perturbations[model]
	r := seedFor(seed, string(bond), string(model))
	return bs.actual.Lag(p.lag).Add(timedataset.GenerateNoise(r, len(bs.actual), p.scale))
}
