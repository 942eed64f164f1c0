package dimension

import (
	"math"
	"math/rand"
	"testing"
)

func TestNegotiate_Table(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		w      int
		h      int
		swap   bool
		c      Constraints
		expect Box
	}{
		{
			name:   "no constraints",
			w:      800,
			h:      600,
			expect: Box{DrawWidth: 800, DrawHeight: 600, CanvasWidth: 800, CanvasHeight: 600},
		},
		{
			name:   "quarter turn swaps canvas",
			w:      800,
			h:      600,
			swap:   true,
			expect: Box{DrawWidth: 800, DrawHeight: 600, CanvasWidth: 600, CanvasHeight: 800},
		},
		{
			name:   "quarter turn with max width",
			w:      1920,
			h:      1080,
			swap:   true,
			c:      Constraints{MaxWidth: 500},
			expect: Box{DrawWidth: 888, DrawHeight: 500, CanvasWidth: 500, CanvasHeight: 888},
		},
		{
			name:   "landscape into square max box",
			w:      4000,
			h:      3000,
			c:      Constraints{MaxWidth: 1920, MaxHeight: 1920},
			expect: Box{DrawWidth: 1920, DrawHeight: 1440, CanvasWidth: 1920, CanvasHeight: 1440},
		},
		{
			name:   "portrait into square max box",
			w:      3000,
			h:      4000,
			c:      Constraints{MaxWidth: 1920, MaxHeight: 1920},
			expect: Box{DrawWidth: 1440, DrawHeight: 1920, CanvasWidth: 1440, CanvasHeight: 1920},
		},
		{
			name:   "max height only",
			w:      1000,
			h:      500,
			c:      Constraints{MaxHeight: 100},
			expect: Box{DrawWidth: 200, DrawHeight: 100, CanvasWidth: 200, CanvasHeight: 100},
		},
		{
			name:   "fractional height floors",
			w:      1000,
			h:      333,
			c:      Constraints{MaxWidth: 100},
			expect: Box{DrawWidth: 100, DrawHeight: 33, CanvasWidth: 100, CanvasHeight: 33},
		},
		{
			name:   "exact width derives height",
			w:      800,
			h:      600,
			c:      Constraints{Width: 400},
			expect: Box{DrawWidth: 400, DrawHeight: 300, CanvasWidth: 400, CanvasHeight: 300},
		},
		{
			name:   "exact box keeps aspect",
			w:      800,
			h:      600,
			c:      Constraints{Width: 400, Height: 400},
			expect: Box{DrawWidth: 400, DrawHeight: 300, CanvasWidth: 400, CanvasHeight: 300},
		},
		{
			name:   "exact height alone does not upscale",
			w:      100,
			h:      100,
			c:      Constraints{Height: 300},
			expect: Box{DrawWidth: 100, DrawHeight: 100, CanvasWidth: 100, CanvasHeight: 100},
		},
		{
			name:   "min width upscales",
			w:      100,
			h:      50,
			c:      Constraints{MinWidth: 400},
			expect: Box{DrawWidth: 400, DrawHeight: 200, CanvasWidth: 400, CanvasHeight: 200},
		},
		{
			name:   "min pair picks the smaller box",
			w:      100,
			h:      50,
			c:      Constraints{MinWidth: 300, MinHeight: 300},
			expect: Box{DrawWidth: 300, DrawHeight: 150, CanvasWidth: 300, CanvasHeight: 150},
		},
		{
			name:   "max wins over min",
			w:      800,
			h:      600,
			c:      Constraints{MaxWidth: 100, MinWidth: 200},
			expect: Box{DrawWidth: 100, DrawHeight: 75, CanvasWidth: 100, CanvasHeight: 75},
		},
		{
			name:   "non-positive and NaN are unconstrained",
			w:      800,
			h:      600,
			c:      Constraints{MaxWidth: -5, MaxHeight: nan, MinWidth: -1, MinHeight: 0, Width: -1, Height: nan},
			expect: Box{DrawWidth: 800, DrawHeight: 600, CanvasWidth: 800, CanvasHeight: 600},
		},
		{
			name:   "zero natural size",
			w:      0,
			h:      600,
			expect: Box{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Negotiate(tt.w, tt.h, tt.swap, tt.c)
			if got != tt.expect {
				t.Fatalf("Negotiate(%d, %d, %v, %+v) = %+v, want %+v", tt.w, tt.h, tt.swap, tt.c, got, tt.expect)
			}
		})
	}
}

func TestNegotiate_ExactPairUpscales(t *testing.T) {
	got := Negotiate(200, 100, false, Constraints{Width: 400, Height: 200})
	want := Box{DrawWidth: 400, DrawHeight: 200, CanvasWidth: 400, CanvasHeight: 200}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestNegotiate_MaxBoundsAndAspect(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		nw := 1 + rng.Intn(4000)
		nh := 1 + rng.Intn(4000)
		swap := rng.Intn(2) == 0
		c := Constraints{}
		if rng.Intn(3) > 0 {
			c.MaxWidth = float64(1 + rng.Intn(4000))
		}
		if rng.Intn(3) > 0 {
			c.MaxHeight = float64(1 + rng.Intn(4000))
		}

		box := Negotiate(nw, nh, swap, c)

		if c.MaxWidth > 0 && float64(box.CanvasWidth) > c.MaxWidth {
			t.Fatalf("case %d: width %d exceeds max %v", i, box.CanvasWidth, c.MaxWidth)
		}
		if c.MaxHeight > 0 && float64(box.CanvasHeight) > c.MaxHeight {
			t.Fatalf("case %d: height %d exceeds max %v", i, box.CanvasHeight, c.MaxHeight)
		}

		ow, oh := float64(nw), float64(nh)
		if swap {
			ow, oh = oh, ow
		}
		ar := ow / oh
		if box.CanvasWidth == 0 || box.CanvasHeight == 0 {
			continue
		}
		diff := math.Abs(float64(box.CanvasWidth) - float64(box.CanvasHeight)*ar)
		if diff > math.Max(1, ar)+1e-9 {
			t.Fatalf("case %d: %dx%d (swap=%v, %+v) -> %dx%d breaks aspect %.4f by %.3f",
				i, nw, nh, swap, c, box.CanvasWidth, box.CanvasHeight, ar, diff)
		}

		if swap {
			if box.DrawWidth != box.CanvasHeight || box.DrawHeight != box.CanvasWidth {
				t.Fatalf("case %d: draw box %+v is not the swapped canvas", i, box)
			}
		} else if box.DrawWidth != box.CanvasWidth || box.DrawHeight != box.CanvasHeight {
			t.Fatalf("case %d: draw box %+v differs from canvas", i, box)
		}
	}
}

func TestNegotiate_MinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		nw := 1 + rng.Intn(500)
		nh := 1 + rng.Intn(500)
		minW := float64(1 + rng.Intn(2000))

		box := Negotiate(nw, nh, false, Constraints{MinWidth: minW})
		if float64(box.CanvasWidth) < math.Floor(minW) {
			t.Fatalf("case %d: width %d below min %v", i, box.CanvasWidth, minW)
		}
	}
}

func TestBox_Exceeds(t *testing.T) {
	b := Box{CanvasWidth: 500, CanvasHeight: 888}
	if b.Exceeds(1080, 1920) {
		t.Fatalf("500x888 should fit in 1080x1920")
	}
	if !b.Exceeds(400, 1920) {
		t.Fatalf("500x888 should exceed 400 wide")
	}
}

func TestNegotiate_SaturatesOversizedResults(t *testing.T) {
	tests := []struct {
		name    string
		natural [2]int
		c       Constraints
	}{
		{name: "exact pair beyond int range", natural: [2]int{100, 100}, c: Constraints{Width: 1e30, Height: 1e30}},
		{name: "huge min width", natural: [2]int{200, 100}, c: Constraints{MinWidth: 1e10}},
		{name: "infinite min width", natural: [2]int{10, 10}, c: Constraints{MinWidth: math.Inf(1)}},
		{name: "huge max with exact pair", natural: [2]int{10, 10}, c: Constraints{Width: 1e300, Height: 1e300, MaxWidth: 1e300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := Negotiate(tt.natural[0], tt.natural[1], false, tt.c)
			if box.CanvasWidth != MaxSide || box.CanvasHeight != MaxSide {
				t.Fatalf("canvas = %dx%d, want %dx%d", box.CanvasWidth, box.CanvasHeight, MaxSide, MaxSide)
			}
			if box.DrawWidth <= 0 || box.DrawHeight <= 0 {
				t.Fatalf("draw box %+v is not positive", box)
			}
		})
	}
}
