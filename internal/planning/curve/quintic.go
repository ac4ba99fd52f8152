// Package curve provides the boundary-value polynomial used as the edge
// model of the path lattice.
package curve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// QuinticPolynomial is the unique degree-5 polynomial l(s) on [0, span]
// matching offset, slope and second derivative at both ends.
//
//	l(s) = c0 + c1·s + c2·s² + c3·s³ + c4·s⁴ + c5·s⁵
type QuinticPolynomial struct {
	coef  [6]float64
	span  float64
	start [3]float64
	end   [3]float64
}

// NewQuinticPolynomial fits the polynomial through (l0, dl0, ddl0) at s=0 and
// (l1, dl1, ddl1) at s=span. span must be strictly positive.
func NewQuinticPolynomial(l0, dl0, ddl0, l1, dl1, ddl1, span float64) *QuinticPolynomial {
	q := &QuinticPolynomial{
		span:  span,
		start: [3]float64{l0, dl0, ddl0},
		end:   [3]float64{l1, dl1, ddl1},
	}
	q.coef[0] = l0
	q.coef[1] = dl0
	q.coef[2] = ddl0 / 2

	high, err := solveHighOrder(q.coef[0], q.coef[1], q.coef[2], l1, dl1, ddl1, span)
	if err != nil {
		// Only reachable when span <= 0, which callers must never pass.
		panic(fmt.Sprintf("quintic fit over span %g: %v", span, err))
	}
	copy(q.coef[3:], high)
	return q
}

// solveHighOrder solves for c3, c4, c5 given the low-order coefficients and
// the end state:
//
//	[ p³   p⁴    p⁵  ] [c3]   [ l1   - c0 - c1·p - c2·p² ]
//	[ 3p²  4p³   5p⁴ ] [c4] = [ dl1  - c1 - 2·c2·p        ]
//	[ 6p   12p²  20p³] [c5]   [ ddl1 - 2·c2               ]
func solveHighOrder(c0, c1, c2, l1, dl1, ddl1, p float64) ([]float64, error) {
	p2 := p * p
	p3 := p2 * p
	a := mat.NewDense(3, 3, []float64{
		p3, p3 * p, p3 * p2,
		3 * p2, 4 * p3, 5 * p3 * p,
		6 * p, 12 * p2, 20 * p3,
	})
	b := mat.NewVecDense(3, []float64{
		l1 - c0 - c1*p - c2*p2,
		dl1 - c1 - 2*c2*p,
		ddl1 - 2*c2,
	})

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		// Short spans are ill-conditioned but still produce a usable
		// solution; gonum flags that with a Condition error.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, err
		}
	}
	return []float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}, nil
}

// Evaluate returns the order-th derivative of l at s. Orders 0 to 3 are
// supported; any other order returns 0. s outside [0, ParamLength()] is
// polynomial extrapolation, not clamped.
func (q *QuinticPolynomial) Evaluate(order int, s float64) float64 {
	c := q.coef
	switch order {
	case 0:
		return ((((c[5]*s+c[4])*s+c[3])*s+c[2])*s+c[1])*s + c[0]
	case 1:
		return (((5*c[5]*s+4*c[4])*s+3*c[3])*s+2*c[2])*s + c[1]
	case 2:
		return ((20*c[5]*s+12*c[4])*s+6*c[3])*s + 2*c[2]
	case 3:
		return (60*c[5]*s+24*c[4])*s + 6*c[3]
	default:
		return 0
	}
}

// ParamLength returns the span the curve was fitted over.
func (q *QuinticPolynomial) ParamLength() float64 { return q.span }

// StartState returns the (l, dl, ddl) boundary state at s=0.
func (q *QuinticPolynomial) StartState() [3]float64 { return q.start }

// EndState returns the (l, dl, ddl) boundary state at s=span.
func (q *QuinticPolynomial) EndState() [3]float64 { return q.end }
