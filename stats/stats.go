// Package stats holds running statistics for search estimates and
// self-play results.
package stats

import (
	"io"
	"math"
	"sort"

	"github.com/aybabtme/uniplot/histogram"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Statistic is a running mean and variance (Welford's algorithm).
type Statistic struct {
	n    int
	last float64
	mean float64
	m2   float64
}

func (s *Statistic) Push(val float64) {
	s.last = val
	s.n++
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

// Merge folds o into s (Chan et al. parallel update).
func (s *Statistic) Merge(o *Statistic) {
	if o.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *o
		return
	}
	n := s.n + o.n
	delta := o.mean - s.mean
	s.mean += delta * float64(o.n) / float64(n)
	s.m2 += o.m2 + delta*delta*float64(s.n)*float64(o.n)/float64(n)
	s.n = n
	s.last = o.last
}

func (s *Statistic) Mean() float64 {
	if s.n > 0 {
		return s.mean
	}
	return 0.0
}

func (s *Statistic) Variance() float64 {
	if s.n <= 1 {
		return 0.0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Statistic) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistic) Last() float64 {
	return s.last
}

// StandardError returns the standard error of the mean.
func (s *Statistic) StandardError() float64 {
	if s.n == 0 {
		return 0.0
	}
	return math.Sqrt(s.Variance() / float64(s.n))
}

func (s *Statistic) Iterations() int {
	return s.n
}

// Interval returns the two-sided confidence interval around the mean for a
// confidence given in percent.
func (s *Statistic) Interval(confidence float64) (lo, hi float64) {
	h := ZVal(confidence) * s.StandardError()
	return s.Mean() - h, s.Mean() + h
}

// GameTally accumulates finished games.
type GameTally struct {
	Score    Statistic
	Turns    Statistic
	MaxTiles map[int]int
	games    int
	scores   []float64
}

func (g *GameTally) Add(score, turns, maxTile int) {
	if g.MaxTiles == nil {
		g.MaxTiles = make(map[int]int)
	}
	g.games++
	g.scores = append(g.scores, float64(score))
	g.Score.Push(float64(score))
	g.Turns.Push(float64(turns))
	g.MaxTiles[maxTile]++
}

func (g *GameTally) Games() int {
	return g.games
}

// Summary is the serialisable view of a tally.
type Summary struct {
	Games       int         `yaml:"games" json:"games"`
	MeanScore   float64     `yaml:"mean_score" json:"mean_score"`
	StdevScore  float64     `yaml:"stdev_score" json:"stdev_score"`
	CI95Low     float64     `yaml:"ci95_low" json:"ci95_low"`
	CI95High    float64     `yaml:"ci95_high" json:"ci95_high"`
	MeanTurns   float64     `yaml:"mean_turns" json:"mean_turns"`
	MaxTiles    []TileCount `yaml:"max_tiles" json:"max_tiles"`
	BestMaxTile int         `yaml:"best_max_tile" json:"best_max_tile"`
}

type TileCount struct {
	Tile  int `yaml:"tile" json:"tile"`
	Games int `yaml:"games" json:"games"`
}

func (g *GameTally) Summary() Summary {
	lo, hi := g.Score.Interval(95)
	out := Summary{
		Games:      g.games,
		MeanScore:  g.Score.Mean(),
		StdevScore: g.Score.Stdev(),
		CI95Low:    lo,
		CI95High:   hi,
		MeanTurns:  g.Turns.Mean(),
	}
	for tile, n := range g.MaxTiles {
		out.MaxTiles = append(out.MaxTiles, TileCount{Tile: tile, Games: n})
		if tile > out.BestMaxTile {
			out.BestMaxTile = tile
		}
	}
	sort.Slice(out.MaxTiles, func(i, j int) bool { return out.MaxTiles[i].Tile < out.MaxTiles[j].Tile })
	return out
}

// Histogram prints a text histogram of final scores.
func (g *GameTally) Histogram(w io.Writer, bins, width int) error {
	if len(g.scores) == 0 {
		_, err := io.WriteString(w, "no games\n")
		return err
	}
	h := histogram.Hist(bins, g.scores)
	return histogram.Fprint(w, h, histogram.Linear(width))
}
