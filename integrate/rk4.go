package integrate

import (
	"github.com/flowvis/gotopo/field"
)

// stepRK4 advances a position by one fixed 4th-order Runge-Kutta step of
// size h.
func stepRK4(c *field.Context, x, y, h float32, dir Direction) (nx, ny float32) {
	k1x, k1y := vel(c, x, y, dir)
	k2x, k2y := vel(c, x+0.5*h*k1x, y+0.5*h*k1y, dir)
	k3x, k3y := vel(c, x+0.5*h*k2x, y+0.5*h*k2y, dir)
	k4x, k4y := vel(c, x+h*k3x, y+h*k3y, dir)

	nx = x + h*(k1x+2*k2x+2*k3x+k4x)/6
	ny = y + h*(k1y+2*k2y+2*k3y+k4y)/6
	return nx, ny
}
