package chromapath

import (
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Genetic optimizer defaults.
const (
	DefaultPopulationSize    = 16
	DefaultMutationRate      = 0.3
	DefaultMaxMutationChange = 0.3
	DefaultEliteThreshold    = 7.5

	// NeutralScore is the unscored sentinel assigned to every scheme
	// at construction and after each evolution step.
	NeutralScore = 5.0

	// segmentationSeed fixes the clustering of the target image so
	// that one optimizer instance always works against the same
	// segmentation.
	segmentationSeed = 42
)

// DefaultCandidateColors is the built-in candidate pool used when the
// caller supplies none.
var DefaultCandidateColors = []RGB{
	{171, 162, 157},
	{175, 186, 196},
	{211, 196, 182},
	{84, 33, 35},
	{216, 160, 80},
	{86, 86, 69},
	{229, 170, 72},
	{0, 0, 0},
	{255, 255, 255},
}

// Scheme is one candidate assignment of colors to cluster labels: the
// color at position i substitutes for cluster label i. Its length
// always equals the optimizer's color count.
type Scheme []RGB

// Clone returns an independent copy of the scheme.
func (s Scheme) Clone() Scheme {
	clone := make(Scheme, len(s))
	copy(clone, s)
	return clone
}

// Equal reports whether two schemes are the same color sequence.
func (s Scheme) Equal(other Scheme) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Individual is one population member: a scheme with its current
// fitness score. Keeping schemes and scores in one record means
// elite filtering, selection, and mutation cannot desynchronize them.
type Individual struct {
	Scheme Scheme
	Score  float64
}

// GenerationStats is the per-generation observability record.
type GenerationStats struct {
	Average float64
	Best    float64
}

// GeneticConfig carries the constructor-time knobs of the optimizer.
// Zero values select the package defaults.
type GeneticConfig struct {
	PopulationSize    int
	MutationRate      float64 // fraction of offspring mutated per generation
	MaxMutationChange float64 // per-channel scaling bound, e.g. 0.3 = ±30%
	EliteThreshold    float64 // score at or above which a scheme survives unchanged
	Candidates        []RGB   // candidate color pool; nil selects the built-in palette
	Seed              int64   // 0 seeds from the clock
}

func (cfg GeneticConfig) withDefaults() GeneticConfig {
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = DefaultPopulationSize
	}
	if cfg.MutationRate == 0 {
		cfg.MutationRate = DefaultMutationRate
	}
	if cfg.MaxMutationChange == 0 {
		cfg.MaxMutationChange = DefaultMaxMutationChange
	}
	if cfg.EliteThreshold == 0 {
		cfg.EliteThreshold = DefaultEliteThreshold
	}
	if cfg.Candidates == nil {
		cfg.Candidates = DefaultCandidateColors
	}
	return cfg
}

// GeneticColorOptimizer maintains a population of candidate color
// schemes over a fixed clustered segmentation of one target image and
// evolves them generation by generation under externally supplied
// fitness scores.
//
// The protocol is two-phase: the caller scores every scheme with
// SetScores (typically a human rating each rendering produced by
// ApplyScheme), then advances one generation with Evolve. The optimizer
// never computes fitness itself, so automated callers can substitute
// any scoring function without touching the evolutionary mechanics.
//
// An optimizer instance is not safe for concurrent use; the
// score-then-evolve cycle must be serialized by the caller.
type GeneticColorOptimizer struct {
	cfg     GeneticConfig
	nColors int

	labels     []int // per-pixel cluster label, fixed for the instance lifetime
	population []Individual
	generation int
	history    []GenerationStats
	rng        *rand.Rand
}

// NewGeneticColorOptimizer clusters the target image's pixels into
// nColors segmentation labels and builds an initial population of
// random permutations of the first nColors candidate colors, every
// scheme carrying the neutral score.
func NewGeneticColorOptimizer(pixels []RGB, nColors int, cfg GeneticConfig) (*GeneticColorOptimizer, error) {
	cfg = cfg.withDefaults()
	if len(pixels) == 0 {
		return nil, errors.New("genetic optimizer requires a nonempty pixel population")
	}
	if nColors < 1 {
		return nil, errors.Errorf("invalid color count %d", nColors)
	}
	if nColors > len(cfg.Candidates) {
		return nil, errors.Errorf(
			"color count %d exceeds candidate pool size %d", nColors, len(cfg.Candidates))
	}

	clusterer := NewColorClusterer(nColors)
	clusterer.Seed = segmentationSeed
	_, labels, err := clusterer.fitLabels(pixels)
	if err != nil {
		return nil, errors.Wrap(err, "clustering target image")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	selected := cfg.Candidates[:nColors]
	population := make([]Individual, cfg.PopulationSize)
	for i := range population {
		scheme := make(Scheme, nColors)
		for pos, src := range rng.Perm(nColors) {
			scheme[pos] = selected[src]
		}
		population[i] = Individual{Scheme: scheme, Score: NeutralScore}
	}

	return &GeneticColorOptimizer{
		cfg:        cfg,
		nColors:    nColors,
		labels:     labels,
		population: population,
		rng:        rng,
	}, nil
}

// ApplyScheme recolors the fixed segmentation under the given scheme:
// every pixel receives the scheme color at its cluster-label index.
// Pure function of (segmentation, scheme); the optimizer's state is
// untouched.
func (g *GeneticColorOptimizer) ApplyScheme(scheme Scheme) ([]RGB, error) {
	if len(scheme) != g.nColors {
		return nil, errors.Errorf(
			"scheme has %d colors, segmentation has %d clusters", len(scheme), g.nColors)
	}
	recolored := make([]RGB, len(g.labels))
	for i, label := range g.labels {
		recolored[i] = scheme[label]
	}
	return recolored, nil
}

// SetScores assigns a fitness score to every scheme of the current
// population, in population order. The score count must equal the
// population size; on mismatch no scores are updated.
func (g *GeneticColorOptimizer) SetScores(scores []float64) error {
	if len(scores) != g.cfg.PopulationSize {
		return errors.Errorf("expected %d scores, got %d", g.cfg.PopulationSize, len(scores))
	}
	for i := range g.population {
		g.population[i].Score = scores[i]
	}
	return nil
}

// Evolve advances the population one generation: it records generation
// statistics, carries schemes scoring at or above the elite threshold
// unchanged, fills the remaining slots with roulette-selected
// two-point-crossover offspring, mutates a random fraction of the
// offspring, and resets every score to the neutral sentinel.
//
// A negative score is a validation error. Note the neutral sentinel
// passes this check, so Evolve alone cannot prove the caller rescored
// this generation.
func (g *GeneticColorOptimizer) Evolve() error {
	for _, ind := range g.population {
		if ind.Score < 0 {
			return errors.New("all schemes must be scored before evolution")
		}
	}

	var sum, best float64
	for i, ind := range g.population {
		sum += ind.Score
		if i == 0 || ind.Score > best {
			best = ind.Score
		}
	}
	g.history = append(g.history, GenerationStats{
		Average: sum / float64(len(g.population)),
		Best:    best,
	})

	var elite []Scheme
	for _, ind := range g.population {
		if ind.Score >= g.cfg.EliteThreshold {
			elite = append(elite, ind.Scheme.Clone())
		}
	}

	offspring := make([]Scheme, 0, g.cfg.PopulationSize-len(elite))
	for len(offspring) < cap(offspring) {
		p1 := g.rouletteSelect()
		p2 := g.rouletteSelect()
		offspring = append(offspring, g.crossover(p1, p2))
	}
	g.mutate(offspring)

	next := make([]Individual, 0, g.cfg.PopulationSize)
	for _, s := range offspring {
		next = append(next, Individual{Scheme: s, Score: NeutralScore})
	}
	for _, s := range elite {
		next = append(next, Individual{Scheme: s, Score: NeutralScore})
	}
	g.population = next
	g.generation++
	return nil
}

// rouletteSelect picks one parent with probability proportional to its
// score. When the total score is zero every scheme is equally likely.
func (g *GeneticColorOptimizer) rouletteSelect() Scheme {
	var total float64
	for _, ind := range g.population {
		total += ind.Score
	}
	if total == 0 {
		return g.population[g.rng.Intn(len(g.population))].Scheme
	}

	r := g.rng.Float64() * total
	var cum float64
	for _, ind := range g.population {
		cum += ind.Score
		if r < cum {
			return ind.Scheme
		}
	}
	return g.population[len(g.population)-1].Scheme
}

// crossover assembles one child from two parents with two-point
// crossover: child = p1[:a] + p2[a:b] + p1[b:]. The cut points are two
// distinct positions in [1, N-1], which requires at least three colors;
// below that the child is a copy of the first parent.
func (g *GeneticColorOptimizer) crossover(p1, p2 Scheme) Scheme {
	n := len(p1)
	if n < 3 {
		return p1.Clone()
	}

	cuts := g.rng.Perm(n - 1)[:2]
	a, b := cuts[0]+1, cuts[1]+1
	if a > b {
		a, b = b, a
	}

	child := make(Scheme, n)
	copy(child[:a], p1[:a])
	copy(child[a:b], p2[a:b])
	copy(child[b:], p1[b:])
	return child
}

// mutate rescales every channel of every color of a random subset of
// the offspring by an independent factor of (1+u), u uniform in
// [-MaxMutationChange, +MaxMutationChange], clamping to [0, 255] and
// truncating to an integer. The subset size is
// floor(MutationRate × len(offspring)).
func (g *GeneticColorOptimizer) mutate(offspring []Scheme) {
	count := int(g.cfg.MutationRate * float64(len(offspring)))
	if count > len(offspring) {
		count = len(offspring)
	}
	for _, idx := range g.rng.Perm(len(offspring))[:count] {
		scheme := offspring[idx]
		for i, c := range scheme {
			scheme[i] = RGB{
				R: g.mutateChannel(c.R),
				G: g.mutateChannel(c.G),
				B: g.mutateChannel(c.B),
			}
		}
	}
}

func (g *GeneticColorOptimizer) mutateChannel(v uint8) uint8 {
	u := (g.rng.Float64()*2 - 1) * g.cfg.MaxMutationChange
	scaled := float64(int(float64(v) * (1 + u)))
	return uint8(clampChannel(scaled))
}

// BestScheme returns the scheme with the highest current score, ties
// resolved by first occurrence in population order.
func (g *GeneticColorOptimizer) BestScheme() (Scheme, float64) {
	best := 0
	for i, ind := range g.population {
		if ind.Score > g.population[best].Score {
			best = i
		}
	}
	return g.population[best].Scheme, g.population[best].Score
}

// Population returns a copy of the current population records.
func (g *GeneticColorOptimizer) Population() []Individual {
	out := make([]Individual, len(g.population))
	for i, ind := range g.population {
		out[i] = Individual{Scheme: ind.Scheme.Clone(), Score: ind.Score}
	}
	return out
}

// Labels returns a copy of the fixed per-pixel segmentation labels.
func (g *GeneticColorOptimizer) Labels() []int {
	out := make([]int, len(g.labels))
	copy(out, g.labels)
	return out
}

// NumColors returns the scheme length N, the cluster count of the
// segmentation.
func (g *GeneticColorOptimizer) NumColors() int { return g.nColors }

// Generation returns the number of completed evolution steps.
func (g *GeneticColorOptimizer) Generation() int { return g.generation }

// History returns the per-generation (average, best) score records in
// order, one per completed Evolve call.
func (g *GeneticColorOptimizer) History() []GenerationStats {
	out := make([]GenerationStats, len(g.history))
	copy(out, g.history)
	return out
}

// SortSchemesByScore returns population indices ordered by descending
// score, ties by population order. Convenience for presentation layers
// listing the current generation.
func (g *GeneticColorOptimizer) SortSchemesByScore() []int {
	idx := make([]int, len(g.population))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return g.population[idx[a]].Score > g.population[idx[b]].Score
	})
	return idx
}
