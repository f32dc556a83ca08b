package sid

// splinePoint is an (x, y) sample of a measured transfer function.
type splinePoint struct {
	x, y float64
}

type splineParam struct {
	x1, x2     float64
	a, b, c, d float64
}

// spline interpolates a set of measured points with a monotone cubic
// (Fritsch-Carlson). Monotonicity matters here: the interpolated op-amp
// transfer functions must not invent local extrema between measurement
// points, or the filter table builders would produce garbage gains.
type spline struct {
	params []splineParam
	cache  *splineParam
}

func newSpline(input []splinePoint) *spline {
	n := len(input) - 1

	dys := make([]float64, n)
	for i := 0; i < n; i++ {
		dys[i] = (input[i+1].y - input[i].y) / (input[i+1].x - input[i].x)
	}

	// Tangents; zeroed where the secants change sign to keep the
	// interpolant monotone.
	c1s := make([]float64, n+1)
	c1s[0] = dys[0]
	for i := 1; i < n; i++ {
		m, mNext := dys[i-1], dys[i]
		if m*mNext <= 0 {
			c1s[i] = 0
		} else {
			dx := input[i].x - input[i-1].x
			dxNext := input[i+1].x - input[i].x
			common := dx + dxNext
			c1s[i] = 3 * common / ((common+dxNext)/m + (common+dx)/mNext)
		}
	}
	c1s[n] = dys[n-1]

	s := &spline{params: make([]splineParam, n)}
	for i := 0; i < n; i++ {
		c1 := c1s[i]
		m := dys[i]
		invDx := 1. / (input[i+1].x - input[i].x)
		common := c1 + c1s[i+1] - m - m
		s.params[i] = splineParam{
			x1: input[i].x,
			x2: input[i+1].x,
			a:  input[i].y,
			b:  c1,
			c:  (m - c1 - common) * invDx,
			d:  common * invDx * invDx,
		}
	}
	s.cache = &s.params[n/2]
	return s
}

// evaluate returns the interpolated function value and its derivative at
// x. Outside the input range the first/last segment polynomial is used,
// extending the curve smoothly.
func (s *spline) evaluate(x float64) (y, dy float64) {
	if x < s.cache.x1 || x > s.cache.x2 {
		for i := range s.params {
			p := &s.params[i]
			if x <= p.x2 {
				s.cache = p
				break
			}
			// Beyond the last point: keep the last segment.
			s.cache = p
		}
	}
	p := s.cache

	diff := x - p.x1
	y = ((p.d*diff+p.c)*diff+p.b)*diff + p.a
	dy = (3*p.d*diff+2*p.c)*diff + p.b
	return y, dy
}
