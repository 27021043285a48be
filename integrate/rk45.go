package integrate

import (
	"github.com/chewxy/math32"

	"github.com/flowvis/gotopo/field"
)

// Cash-Karp coefficients for the embedded Runge-Kutta 4(5) pair.
const (
	a21 = 1.0 / 5.0

	a31 = 3.0 / 40.0
	a32 = 9.0 / 40.0

	a41 = 3.0 / 10.0
	a42 = -9.0 / 10.0
	a43 = 6.0 / 5.0

	a51 = -11.0 / 54.0
	a52 = 5.0 / 2.0
	a53 = -70.0 / 27.0
	a54 = 35.0 / 27.0

	a61 = 1631.0 / 55296.0
	a62 = 175.0 / 512.0
	a63 = 575.0 / 13824.0
	a64 = 44275.0 / 110592.0
	a65 = 253.0 / 4096.0

	// 5th-order solution weights.
	b51 = 37.0 / 378.0
	b53 = 250.0 / 621.0
	b54 = 125.0 / 594.0
	b56 = 512.0 / 1771.0

	// 4th-order solution weights.
	b41 = 2825.0 / 27648.0
	b43 = 18575.0 / 48384.0
	b44 = 13525.0 / 55296.0
	b45 = 277.0 / 14336.0
	b46 = 1.0 / 4.0
)

// stepRK45 attempts one adaptive Cash-Karp step starting at step size h.
// A step whose normalized error estimate exceeds one is rejected and
// retried with a smaller h; an accepted step returns the 5th-order
// position and the grown step size for the next step. ok is false when
// maxRejections retries could not produce an acceptable step.
func stepRK45(c *field.Context, x, y, h float32, dir Direction) (nx, ny, hNext float32, ok bool) {
	for try := 0; try < maxRejections; try++ {
		k1x, k1y := vel(c, x, y, dir)
		k2x, k2y := vel(c, x+h*a21*k1x, y+h*a21*k1y, dir)
		k3x, k3y := vel(c, x+h*(a31*k1x+a32*k2x), y+h*(a31*k1y+a32*k2y), dir)
		k4x, k4y := vel(c,
			x+h*(a41*k1x+a42*k2x+a43*k3x),
			y+h*(a41*k1y+a42*k2y+a43*k3y), dir)
		k5x, k5y := vel(c,
			x+h*(a51*k1x+a52*k2x+a53*k3x+a54*k4x),
			y+h*(a51*k1y+a52*k2y+a53*k3y+a54*k4y), dir)
		k6x, k6y := vel(c,
			x+h*(a61*k1x+a62*k2x+a63*k3x+a64*k4x+a65*k5x),
			y+h*(a61*k1y+a62*k2y+a63*k3y+a64*k4y+a65*k5y), dir)

		x5 := x + h*(b51*k1x+b53*k3x+b54*k4x+b56*k6x)
		y5 := y + h*(b51*k1y+b53*k3y+b54*k4y+b56*k6y)

		x4 := x + h*(b41*k1x+b43*k3x+b44*k4x+b45*k5x+b46*k6x)
		y4 := y + h*(b41*k1y+b43*k3y+b44*k4y+b45*k5y+b46*k6y)

		// The error estimate is normalized by the local field magnitude
		// and by the configured maximum error.
		denom := math32.Max(math32.Max(math32.Abs(k1x), math32.Abs(k1y)), field.Eps)
		err := math32.Max(math32.Abs(x5-x4), math32.Abs(y5-y4)) / denom
		err /= c.MaxError()

		// The comparison is written so that a NaN error estimate counts
		// as a rejection.
		if !(err <= 1) {
			h *= math32.Max(0.1, 0.9*math32.Pow(err, -0.25))
			continue
		}

		return x5, y5, h * math32.Min(5.0, 0.9*math32.Pow(err, -0.2)), true
	}

	return x, y, h, false
}
