package frenet

import (
	"math"

	"github.com/banshee-data/pathtunnel/internal/planning/geometry"
)

// denominatorEpsilon guards the curvature formula against a vanishing
// (1 - κr·l) term, i.e. a point on the reference line's centre of curvature.
const denominatorEpsilon = 1e-9

// CalculateTheta returns the Cartesian heading of a path point given the
// reference heading and curvature at its s and the point's l and dl.
func CalculateTheta(refTheta, refKappa, l, dl float64) float64 {
	return geometry.NormalizeAngle(refTheta + math.Atan2(dl, 1-l*refKappa))
}

// CalculateKappa returns the Cartesian curvature of a path point from the
// reference curvature κr, its rate dκr, and the point's l, dl, ddl.
//
//	      κr + ddl - 2lκr² - l·ddl·κr + l²κr³ + l·dl·dκr + 2dl²κr
//	κ = -------------------------------------------------------------
//	                   (dl² + (1 - lκr)²)^(3/2)
func CalculateKappa(refKappa, refDKappa, l, dl, ddl float64) float64 {
	oneMinus := 1 - l*refKappa
	denominator := dl*dl + oneMinus*oneMinus
	if math.Abs(denominator) < denominatorEpsilon {
		return 0
	}
	denominator = math.Pow(denominator, 1.5)
	numerator := refKappa + ddl - 2*l*refKappa*refKappa -
		l*ddl*refKappa + l*l*refKappa*refKappa*refKappa +
		l*dl*refDKappa + 2*dl*dl*refKappa
	return numerator / denominator
}

// CalculateLateralDerivative returns dl/ds for a vehicle with heading theta
// at lateral offset l, given the reference heading and curvature.
func CalculateLateralDerivative(refTheta, theta, l, refKappa float64) float64 {
	return (1 - refKappa*l) * math.Tan(theta-refTheta)
}

// CalculateSecondOrderLateralDerivative returns d²l/ds² for a vehicle with
// heading theta and curvature kappa at lateral offset l.
func CalculateSecondOrderLateralDerivative(refTheta, theta, refKappa, kappa, refDKappa, l float64) float64 {
	dl := CalculateLateralDerivative(refTheta, theta, l, refKappa)
	deltaTheta := theta - refTheta
	cosDelta := math.Cos(deltaTheta)
	res := -(refDKappa*l + refKappa*dl) * math.Tan(deltaTheta)
	if math.Abs(cosDelta) > denominatorEpsilon {
		oneMinus := 1 - refKappa*l
		res += oneMinus / (cosDelta * cosDelta) * (kappa*oneMinus/cosDelta - refKappa)
	}
	return res
}
