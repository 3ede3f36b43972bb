package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ForecastPoint is one projected future period
type ForecastPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// ForecastResult reports only the best-fitting model by R²
type ForecastResult struct {
	Model      string          `json:"model"` // "linear", "exponencial", "polinomial"
	R2         float64         `json:"r2"`
	Confidence float64         `json:"confidence"` // clamp(R²×100, 0, 100)
	Points     []ForecastPoint `json:"points"`
}

const forecastHorizon = 3

var errTooFewPeriods = errors.New("previsão requer pelo menos 3 períodos mensais")

type fittedModel struct {
	name    string
	r2      float64
	predict func(x float64) float64
}

// forecast fits linear, exponential and quadratic regressions over the
// monthly totals and extrapolates 3 periods with the best model
func (e *Engine) forecast(series []MonthlyPoint) (*ForecastResult, error) {
	if len(series) < 3 {
		return nil, errTooFewPeriods
	}

	x := make([]float64, len(series))
	y := make([]float64, len(series))
	for i, p := range series {
		x[i] = float64(i)
		y[i] = p.Value
	}

	var best *fittedModel
	for _, fit := range []func(x, y []float64) (*fittedModel, error){
		fitLinear, fitExponential, fitPolynomial,
	} {
		model, err := fit(x, y)
		if err != nil {
			e.log.Debug("modelo de previsão descartado: %v", err)
			continue
		}
		if best == nil || model.r2 > best.r2 {
			best = model
		}
	}
	if best == nil {
		return nil, errors.New("nenhum modelo de regressão pôde ser ajustado")
	}

	periods := nextPeriods(series[len(series)-1].Period, forecastHorizon)
	points := make([]ForecastPoint, 0, forecastHorizon)
	for i, period := range periods {
		points = append(points, ForecastPoint{
			Period: period,
			Value:  best.predict(float64(len(series) + i)),
		})
	}

	return &ForecastResult{
		Model:      best.name,
		R2:         best.r2,
		Confidence: clamp(best.r2*100, 0, 100),
		Points:     points,
	}, nil
}

func fitLinear(x, y []float64) (*fittedModel, error) {
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, errors.New("regressão linear degenerada")
	}
	predict := func(v float64) float64 { return alpha + beta*v }
	return &fittedModel{name: "linear", r2: rSquared(x, y, predict), predict: predict}, nil
}

// fitExponential fits y = a·e^(bx) by linear regression on ln(y).
// Only defined for strictly positive series.
func fitExponential(x, y []float64) (*fittedModel, error) {
	logY := make([]float64, len(y))
	for i, v := range y {
		if v <= 0 {
			return nil, errors.New("modelo exponencial requer valores positivos")
		}
		logY[i] = math.Log(v)
	}
	alpha, beta := stat.LinearRegression(x, logY, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, errors.New("regressão exponencial degenerada")
	}
	a := math.Exp(alpha)
	predict := func(v float64) float64 { return a * math.Exp(beta*v) }
	return &fittedModel{name: "exponencial", r2: rSquared(x, y, predict), predict: predict}, nil
}

// fitPolynomial fits a 2nd-order polynomial by least squares
func fitPolynomial(x, y []float64) (*fittedModel, error) {
	n := len(x)
	design := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, x[i])
		design.Set(i, 2, x[i]*x[i])
	}
	target := mat.NewVecDense(n, y)

	var coef mat.VecDense
	if err := coef.SolveVec(design, target); err != nil {
		return nil, fmt.Errorf("regressão polinomial degenerada: %w", err)
	}

	c0, c1, c2 := coef.AtVec(0), coef.AtVec(1), coef.AtVec(2)
	predict := func(v float64) float64 { return c0 + c1*v + c2*v*v }
	return &fittedModel{name: "polinomial", r2: rSquared(x, y, predict), predict: predict}, nil
}

// rSquared is the coefficient of determination on the original scale,
// guarded for constant series
func rSquared(x, y []float64, predict func(float64) float64) float64 {
	mean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range y {
		diff := y[i] - predict(x[i])
		ssRes += diff * diff
		dev := y[i] - mean
		ssTot += dev * dev
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
