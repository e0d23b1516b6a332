package bondapi

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownModel = errors.New("unknown model name")
	ErrUnknownBond  = errors.New("unknown bond type")
)

// Model is the backend identifier of a forecasting model.
type Model string

// Bond is the backend identifier of a bond tenor.
type Bond string

const (
	ModelLinearRegression Model = "linear_regression"
	ModelARIMA            Model = "arima"
	ModelLSTM             Model = "lstm"
	ModelXGBoost          Model = "xgboost"

	Bond3yr  Bond = "3yr"
	Bond10yr Bond = "10yr"

	// DefaultModel and DefaultBond are substituted for unrecognized names when strict
	// mapping is off.
	DefaultModel = ModelXGBoost
	DefaultBond  = Bond3yr
)

var (
	models = []Model{ModelLinearRegression, ModelARIMA, ModelLSTM, ModelXGBoost}
	bonds  = []Bond{Bond3yr, Bond10yr}

	modelDisplayNames = map[Model]string{
		ModelLinearRegression: "Linear Regression",
		ModelARIMA:            "ARIMA",
		ModelLSTM:             "DLSTM",
		ModelXGBoost:          "XGBoost",
	}
	bondDisplayNames = map[Bond]string{
		Bond3yr:  "3-year",
		Bond10yr: "10-year",
	}

	modelsByDisplayName = invert(modelDisplayNames)
	bondsByDisplayName  = invert(bondDisplayNames)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// Models returns every supported model in display order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// Bonds returns every supported bond tenor, shortest first.
func Bonds() []Bond {
	out := make([]Bond, len(bonds))
	copy(out, bonds)
	return out
}

// DisplayName returns the dashboard name of the model, e.g. "DLSTM" for lstm.
func (m Model) DisplayName() string {
	if name, exists := modelDisplayNames[m]; exists {
		return name
	}
	return string(m)
}

// DisplayName returns the dashboard name of the bond, e.g. "3-year" for 3yr.
func (b Bond) DisplayName() string {
	if name, exists := bondDisplayNames[b]; exists {
		return name
	}
	return string(b)
}

// ParseModel maps a dashboard model name to its backend identifier.
func ParseModel(name string) (Model, error) {
	m, exists := modelsByDisplayName[name]
	if !exists {
		return "", fmt.Errorf("%q, %w", name, ErrUnknownModel)
	}
	return m, nil
}

// ParseBond maps a dashboard bond name to its backend identifier.
func ParseBond(name string) (Bond, error) {
	b, exists := bondsByDisplayName[name]
	if !exists {
		return "", fmt.Errorf("%q, %w", name, ErrUnknownBond)
	}
	return b, nil
}

// MapModel is the permissive form of ParseModel. Unrecognized names map to DefaultModel.
func MapModel(name string) Model {
	m, err := ParseModel(name)
	if err != nil {
		return DefaultModel
	}
	return m
}

// MapBond is the permissive form of ParseBond. Unrecognized names map to DefaultBond.
func MapBond(name string) Bond {
	b, err := ParseBond(name)
	if err != nil {
		return DefaultBond
	}
	return b
}
