package camera

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func newTestCamera(t *testing.T, options ...CameraBuilderOption) Camera {
	t.Helper()
	c, err := NewCamera(options...)
	require.NoError(t, err)
	return c
}

func assertVec(t *testing.T, want [3]float64, got mgl32.Vec3, msg string) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], float64(got[i]), eps, "%s[%d]", msg, i)
	}
}

func assertFiniteBasis(t *testing.T, b CameraBasis) {
	t.Helper()
	vals := []float32{b.ScaleX, b.ScaleY, b.Distance}
	for _, v := range []mgl32.Vec3{b.Origin, b.Right, b.Up, b.Forward} {
		vals = append(vals, v[:]...)
	}
	for _, v := range vals {
		assert.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "non-finite value %v in basis", v)
	}
}

func TestNewCameraDefaults(t *testing.T) {
	c := newTestCamera(t)
	assert.Equal(t, DefaultState(), c.State())
	assert.Equal(t, float32(2.8), c.Azimuth())
	assert.Equal(t, float32(0.4), c.Elevation())
	assert.Equal(t, float32(1.6), c.Distance())
	x, y, z := c.Pivot()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, z)
	assert.Equal(t, DefaultMinDistance, c.MinDistance())
	assert.Equal(t, DefaultMaxDistance, c.MaxDistance())

	b, err := c.ComputeBasis(100, 100)
	require.NoError(t, err)
	assertVec(t, [3]float64{-1.3885507930687988, 0.6230693476938409, 0.4936712296988571}, b.Origin, "origin")
}

func TestNewCameraRejectsInvalidOptions(t *testing.T) {
	cases := map[string][]CameraBuilderOption{
		"zero distance":     {WithDistance(0)},
		"negative distance": {WithDistance(-1)},
		"nan azimuth":       {WithAzimuth(math32.NaN())},
		"inf pivot":         {WithPivot(0, math32.Inf(1), 0)},
		"zero min bound":    {WithDistanceBounds(0, 10)},
		"inverted bounds":   {WithDistanceBounds(10, 1)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCamera(opts...)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestNewCameraClampsDistanceToBounds(t *testing.T) {
	c := newTestCamera(t, WithDistance(50), WithDistanceBounds(1, 10))
	assert.Equal(t, float32(10), c.Distance())
}

func TestBasisIsOrthonormal(t *testing.T) {
	for a := float32(-7); a <= 7; a += 0.37 {
		for e := float32(-7); e <= 7; e += 0.41 {
			b, err := BasisFromState(CameraState{Azimuth: a, Elevation: e, Distance: 2}, 640, 480)
			require.NoError(t, err)

			assert.InDelta(t, 1, b.Right.Len(), eps, "right a=%v e=%v", a, e)
			assert.InDelta(t, 1, b.Up.Len(), eps, "up a=%v e=%v", a, e)
			assert.InDelta(t, 1, b.Forward.Len(), eps, "forward a=%v e=%v", a, e)

			assert.InDelta(t, 0, b.Right.Dot(b.Up), eps)
			assert.InDelta(t, 0, b.Right.Dot(b.Forward), eps)
			assert.InDelta(t, 0, b.Up.Dot(b.Forward), eps)

			// right x up points away from the view direction.
			assert.True(t, b.Right.Cross(b.Up).ApproxEqualThreshold(b.Forward.Mul(-1), 1e-4))

			// forward looks from the eye towards the pivot.
			toPivot := b.Origin.Mul(-1).Normalize()
			assert.True(t, toPivot.ApproxEqualThreshold(b.Forward, 1e-4))
		}
	}
}

func TestZoomRoundTrip(t *testing.T) {
	c := newTestCamera(t)
	d := c.Distance()
	require.NoError(t, c.Zoom(2))
	assert.InDelta(t, float64(2*d), float64(c.Distance()), eps)
	require.NoError(t, c.Zoom(0.5))
	assert.InDelta(t, float64(d), float64(c.Distance()), eps)
}

func TestZoomRejectsInvalidFactor(t *testing.T) {
	c := newTestCamera(t)
	for _, f := range []float32{0, -1, math32.NaN(), math32.Inf(1), math32.Inf(-1)} {
		err := c.Zoom(f)
		assert.ErrorIs(t, err, ErrInvalidZoomFactor, "factor %v", f)
		assert.Equal(t, float32(1.6), c.Distance())
	}
}

func TestZoomClampsToBounds(t *testing.T) {
	c := newTestCamera(t)
	for range 200 {
		require.NoError(t, c.Zoom(0.01))
	}
	assert.Equal(t, DefaultMinDistance, c.Distance())
	assert.Greater(t, c.Distance(), float32(0))

	for range 200 {
		require.NoError(t, c.Zoom(100))
	}
	assert.Equal(t, DefaultMaxDistance, c.Distance())

	b, err := c.ComputeBasis(10, 10)
	require.NoError(t, err)
	assertFiniteBasis(t, b)
}

func TestNoOpGestures(t *testing.T) {
	c := newTestCamera(t, WithPivot(0.5, -0.25, 1))
	before := c.State()

	c.Rotate(0, 0)
	assert.Equal(t, before, c.State())

	require.NoError(t, c.Pan(0, 0, 300))
	assert.Equal(t, before, c.State())
}

func TestRotateIsUnbounded(t *testing.T) {
	c := newTestCamera(t)
	for range 100 {
		c.Rotate(1, 1)
	}
	assert.InDelta(t, 102.8, float64(c.Azimuth()), 1e-3)
	assert.InDelta(t, 100.4, float64(c.Elevation()), 1e-3)

	b, err := c.ComputeBasis(100, 100)
	require.NoError(t, err)
	assertFiniteBasis(t, b)
}

func TestRotateIgnoresNonFinite(t *testing.T) {
	c := newTestCamera(t)
	before := c.State()
	c.Rotate(math32.NaN(), 0)
	c.Rotate(0, math32.Inf(1))
	assert.Equal(t, before, c.State())
}

func TestPanRejectsDegenerateViewport(t *testing.T) {
	c := newTestCamera(t)
	before := c.State()

	assert.ErrorIs(t, c.Pan(5, 5, 0), ErrDegenerateViewport)
	assert.ErrorIs(t, c.Pan(5, 5, -10), ErrDegenerateViewport)
	assert.ErrorIs(t, c.Pan(math32.NaN(), 0, 100), ErrNonFiniteInput)
	assert.ErrorIs(t, c.Pan(0, 0, math32.Inf(1)), ErrNonFiniteInput)
	assert.Equal(t, before, c.State())
}

func TestPanFollowsViewAxes(t *testing.T) {
	c := newTestCamera(t)
	b, err := c.ComputeBasis(100, 100)
	require.NoError(t, err)

	// A pure horizontal drag moves the pivot against the right axis.
	require.NoError(t, c.Pan(10, 0, 100))
	x, y, z := c.Pivot()
	moved := mgl32.Vec3{x, y, z}
	assert.InDelta(t, 0, moved.Dot(b.Up), eps)
	assert.Less(t, moved.Dot(b.Right), float32(0))
	assert.InDelta(t, 1.6*4/200*10, float64(moved.Len()), eps)
}

func TestViewportScale(t *testing.T) {
	cases := []struct {
		w, h int
		want float64
	}{
		{100, 100, 1},
		{200, 100, 200.0 / 300.0},
		{100, 400, 200.0 / 500.0},
		{1920, 1080, 2160.0 / 3000.0},
		{1, 1, 1},
	}
	c := newTestCamera(t)
	for _, tc := range cases {
		b, err := c.ComputeBasis(tc.w, tc.h)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, float64(b.ScaleX), eps, "%dx%d", tc.w, tc.h)
		assert.Equal(t, b.ScaleX, b.ScaleY)
	}
}

func TestComputeBasisRejectsDegenerateViewport(t *testing.T) {
	c := newTestCamera(t)
	for _, dims := range [][2]int{{0, 0}, {0, 100}, {100, 0}, {-5, 100}} {
		b, err := c.ComputeBasis(dims[0], dims[1])
		assert.ErrorIs(t, err, ErrDegenerateViewport)
		assert.Equal(t, CameraBasis{}, b)
	}
}

func TestComputeBasisHasNoSideEffects(t *testing.T) {
	c := newTestCamera(t)
	before := c.State()
	first, err := c.ComputeBasis(320, 200)
	require.NoError(t, err)
	second, err := c.ComputeBasis(320, 200)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, c.State())
}

func TestGoldenGestureSequence(t *testing.T) {
	c := newTestCamera(t)
	c.Rotate(0.1, 0)
	require.NoError(t, c.Pan(5, 0, 100))
	require.NoError(t, c.Zoom(1.1))

	x, y, z := c.Pivot()
	assert.InDelta(t, -0.03827989267423719, float64(x), eps)
	assert.InDelta(t, 0, float64(y), eps)
	assert.InDelta(t, -0.1553533064239345, float64(z), eps)
	assert.InDelta(t, 1.76, float64(c.Distance()), eps)

	b, err := c.ComputeBasis(100, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1, float64(b.ScaleX), eps)
	assert.InDelta(t, 1, float64(b.ScaleY), eps)
	assert.InDelta(t, 1.76, float64(b.Distance), eps)
	assertVec(t, [3]float64{-1.6122684718753402, 0.685376282463225, 0.23248596954148884}, b.Origin, "origin")
	assertVec(t, [3]float64{0.23924932921398243, 0, 0.9709581651495905}, b.Right, "right")
	assertVec(t, [3]float64{0.3781089191236025, 0.9210609940028851, -0.09316807718096563}, b.Up, "up")
	assertVec(t, [3]float64{0.8943116927278993, -0.3894183423086505, -0.22036322498035416}, b.Forward, "forward")
}

func TestSetState(t *testing.T) {
	c := newTestCamera(t)
	c.Rotate(1, 1)
	require.NoError(t, c.SetState(DefaultState()))
	assert.Equal(t, DefaultState(), c.State())

	assert.ErrorIs(t, c.SetState(CameraState{Distance: 0}), ErrInvalidState)
	assert.ErrorIs(t, c.SetState(CameraState{Distance: math32.NaN()}), ErrInvalidState)
	assert.Equal(t, DefaultState(), c.State())
}

func TestConcurrentGesturesAreVisible(t *testing.T) {
	c := newTestCamera(t, WithAzimuth(0), WithElevation(0))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Rotate(0.001, 0)
				_, _ = c.ComputeBasis(64, 48)
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.8, float64(c.Azimuth()), 1e-4)
}

func TestMarshalLayout(t *testing.T) {
	b, err := BasisFromState(CameraState{Azimuth: 0.3, Elevation: -0.2, Distance: 3, Pivot: [3]float32{1, 2, 3}}, 200, 100)
	require.NoError(t, err)
	u := b.Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, 80, GPUFrameUniformSize)

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	assert.Equal(t, b.ScaleX, f(0))
	assert.Equal(t, b.ScaleY, f(4))
	assert.Equal(t, b.Distance, f(8))
	for i := range 3 {
		assert.Equal(t, b.Origin[i], f(16+i*4))
		assert.Equal(t, b.Right[i], f(32+i*4))
		assert.Equal(t, b.Up[i], f(48+i*4))
		assert.Equal(t, b.Forward[i], f(64+i*4))
	}
	for _, pad := range []int{12, 28, 44, 60, 76} {
		assert.Equal(t, []byte{0, 0, 0, 0}, buf[pad:pad+4], "pad at %d", pad)
	}
}

func TestUniformSourceDeclaresStruct(t *testing.T) {
	assert.Contains(t, GPUFrameUniformSource, "struct FrameUniform")
}
