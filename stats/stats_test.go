package stats

import (
	"bytes"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestMergeMatchesSequential(t *testing.T) {
	is := is.New(t)
	vals := []float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}
	var all, a, b Statistic
	for i, v := range vals {
		all.Push(v)
		if i < 4 {
			a.Push(v)
		} else {
			b.Push(v)
		}
	}
	a.Merge(&b)
	is.Equal(a.Iterations(), all.Iterations())
	is.True(FuzzyEqual(a.Mean(), all.Mean()))
	is.True(FuzzyEqual(a.Variance(), all.Variance()))

	var empty Statistic
	empty.Merge(&all)
	is.True(FuzzyEqual(empty.Mean(), all.Mean()))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(math.Abs(ZVal(95)-1.959964) < 1e-5)
	is.True(math.Abs(ZVal(99)-2.575829) < 1e-5)
}

func TestInterval(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, v := range []float64{10, 20, 30, 40} {
		s.Push(v)
	}
	lo, hi := s.Interval(95)
	is.True(lo < s.Mean() && s.Mean() < hi)
	is.True(FuzzyEqual(hi-s.Mean(), s.Mean()-lo))
}

func TestGameTally(t *testing.T) {
	is := is.New(t)
	var g GameTally
	g.Add(1000, 100, 128)
	g.Add(3000, 200, 256)
	g.Add(2000, 150, 128)

	sum := g.Summary()
	is.Equal(sum.Games, 3)
	is.True(FuzzyEqual(sum.MeanScore, 2000))
	is.True(FuzzyEqual(sum.MeanTurns, 150))
	is.Equal(sum.BestMaxTile, 256)
	is.Equal(sum.MaxTiles, []TileCount{{Tile: 128, Games: 2}, {Tile: 256, Games: 1}})
}

func TestGameTallyHistogram(t *testing.T) {
	is := is.New(t)
	var g GameTally
	var buf bytes.Buffer
	is.NoErr(g.Histogram(&buf, 5, 20))
	is.Equal(buf.String(), "no games\n")

	for _, s := range []int{100, 200, 200, 900, 1500} {
		g.Add(s, 10, 64)
	}
	buf.Reset()
	is.NoErr(g.Histogram(&buf, 5, 20))
	is.True(buf.Len() > 0)
}
