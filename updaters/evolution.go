package updaters

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/LondonNode/anvil/types"
)

// PopulationInitStrategy selects how the initial population is drawn
type PopulationInitStrategy int

const (
	// PopulationInitNormal draws candidates around a starting point
	PopulationInitNormal PopulationInitStrategy = iota
	// PopulationInitUniform draws candidates uniformly from the space
	PopulationInitUniform
)

func ParsePopulationInitStrategy(s string) (PopulationInitStrategy, error) {
	switch strings.ToLower(s) {
	case "normal":
		return PopulationInitNormal, nil
	case "uniform":
		return PopulationInitUniform, nil
	}
	return 0, fmt.Errorf("unrecognized population init strategy %q", s)
}

// PopulationInitializerSettings configures population initialization
type PopulationInitializerSettings struct {
	Strategy PopulationInitStrategy
	// Std of the normal strategy, defaults to 1
	Std float64
	// StartingPoint of the normal strategy, defaults to the space center
	StartingPoint []float64
}

// SelectionOperator picks one parent row index per draw, weighted by
// fitness
type SelectionOperator func(fitness []float64, rng *rand.Rand) int

// RouletteSelection samples parents with probability proportional to
// fitness, shifted to be positive
func RouletteSelection() SelectionOperator {
	return func(fitness []float64, rng *rand.Rand) int {
		min := fitness[0]
		for _, f := range fitness {
			if f < min {
				min = f
			}
		}
		weights := make([]float64, len(fitness))
		total := 0.0
		for i, f := range fitness {
			weights[i] = f - min + 1e-9
			total += weights[i]
		}
		if total <= 0 {
			return rng.Intn(len(fitness))
		}
		i, ok := sampleuv.NewWeighted(weights, rng).Take()
		if !ok {
			return rng.Intn(len(fitness))
		}
		return i
	}
}

// TournamentSelection picks the fittest of k random candidates
func TournamentSelection(k int) SelectionOperator {
	if k < 2 {
		k = 2
	}
	return func(fitness []float64, rng *rand.Rand) int {
		best := rng.Intn(len(fitness))
		for i := 1; i < k; i++ {
			c := rng.Intn(len(fitness))
			if fitness[c] > fitness[best] {
				best = c
			}
		}
		return best
	}
}

// CrossoverOperator combines two parent genomes into a child
type CrossoverOperator func(a, b []float64, rng *rand.Rand) []float64

// OnePointCrossover splices the parents at a random cut point
func OnePointCrossover() CrossoverOperator {
	return func(a, b []float64, rng *rand.Rand) []float64 {
		child := make([]float64, len(a))
		cut := rng.Intn(len(a) + 1)
		copy(child, a[:cut])
		copy(child[cut:], b[cut:])
		return child
	}
}

// MutationOperator perturbs a genome in place
type MutationOperator func(genome []float64, space types.Space, rate float64, rng *rand.Rand)

// UniformMutation resamples each gene from the space with the given rate
func UniformMutation() MutationOperator {
	return func(genome []float64, space types.Space, rate float64, rng *rand.Rand) {
		fresh := space.Sample(rng)
		for i := range genome {
			if rng.Float64() < rate {
				genome[i] = fresh[i]
			}
		}
	}
}

// GaussianMutation adds zero-mean noise of the given std with the given
// rate
func GaussianMutation(std float64) MutationOperator {
	return func(genome []float64, space types.Space, rate float64, rng *rand.Rand) {
		noise := distuv.Normal{Mu: 0, Sigma: std, Src: rng}
		for i := range genome {
			if rng.Float64() < rate {
				genome[i] += noise.Rand()
			}
		}
	}
}

// GeneticUpdaterConfig configures one evolution step
type GeneticUpdaterConfig struct {
	Selection SelectionOperator // defaults to roulette
	Crossover CrossoverOperator // defaults to one-point
	Mutation  MutationOperator  // defaults to uniform
	// MutationRate defaults to 0.1
	MutationRate float64
	// Elitism is the fraction of top candidates carried over verbatim,
	// defaults to 0.1
	Elitism float64
}

func (c GeneticUpdaterConfig) withDefaults() GeneticUpdaterConfig {
	if c.Selection == nil {
		c.Selection = RouletteSelection()
	}
	if c.Crossover == nil {
		c.Crossover = OnePointCrossover()
	}
	if c.Mutation == nil {
		c.Mutation = UniformMutation()
	}
	if c.MutationRate == 0 {
		c.MutationRate = 0.1
	}
	if c.Elitism == 0 {
		c.Elitism = 0.1
	}
	return c
}

// BaseEvolutionUpdater is the population re-sampling contract consumed
// by the evolution orchestrator
type BaseEvolutionUpdater interface {
	InitializePopulation(settings PopulationInitializerSettings) *mat.Dense
	Population() *mat.Dense
}

// GeneticUpdater evolves a population through selection, crossover,
// mutation and elitism-preserving carryover
type GeneticUpdater struct {
	space          types.Space
	populationSize int
	population     *mat.Dense
	rng            *rand.Rand
}

var _ BaseEvolutionUpdater = &GeneticUpdater{}

func NewGeneticUpdater(space types.Space, populationSize int, src rand.Source) *GeneticUpdater {
	return &GeneticUpdater{
		space:          space,
		populationSize: populationSize,
		rng:            rand.New(src),
	}
}

func (g *GeneticUpdater) Population() *mat.Dense {
	return g.population
}

// InitializePopulation draws the starting population
func (g *GeneticUpdater) InitializePopulation(settings PopulationInitializerSettings) *mat.Dense {
	dim := g.space.Dim()
	pop := mat.NewDense(g.populationSize, dim, nil)
	switch settings.Strategy {
	case PopulationInitUniform:
		for i := 0; i < g.populationSize; i++ {
			pop.SetRow(i, g.space.Sample(g.rng))
		}
	default:
		std := settings.Std
		if std == 0 {
			std = 1
		}
		center := settings.StartingPoint
		if center == nil {
			center = make([]float64, dim)
		}
		noise := distuv.Normal{Mu: 0, Sigma: std, Src: g.rng}
		for i := 0; i < g.populationSize; i++ {
			row := make([]float64, dim)
			for j := range row {
				row[j] = center[j] + noise.Rand()
			}
			pop.SetRow(i, row)
		}
	}
	g.population = pop
	return pop
}

// Update evolves the population against per-candidate fitness and
// replaces the held population with the result
func (g *GeneticUpdater) Update(fitness []float64, cfg GeneticUpdaterConfig) (*types.UpdaterLog, error) {
	if g.population == nil {
		return nil, fmt.Errorf("population not initialized")
	}
	if len(fitness) != g.populationSize {
		return nil, fmt.Errorf("fitness length %d does not match population size %d", len(fitness), g.populationSize)
	}
	cfg = cfg.withDefaults()

	n := g.populationSize
	dim := g.space.Dim()
	next := mat.NewDense(n, dim, nil)

	// elites survive unchanged
	numElites := int(math.Ceil(cfg.Elitism * float64(n)))
	if numElites > n {
		numElites = n
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return fitness[order[a]] > fitness[order[b]] })
	for i := 0; i < numElites; i++ {
		next.SetRow(i, g.population.RawRowView(order[i]))
	}

	for i := numElites; i < n; i++ {
		a := g.population.RawRowView(cfg.Selection(fitness, g.rng))
		b := g.population.RawRowView(cfg.Selection(fitness, g.rng))
		child := cfg.Crossover(a, b, g.rng)
		cfg.Mutation(child, g.space, cfg.MutationRate, g.rng)
		next.SetRow(i, child)
	}

	divergence := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			d := next.At(i, j) - g.population.At(i, j)
			divergence += d * d
		}
	}
	divergence = math.Sqrt(divergence)

	g.population = next
	return &types.UpdaterLog{Divergence: divergence, Entropy: populationEntropy(next)}, nil
}

// populationEntropy is a Gaussian entropy estimate from the per-gene
// standard deviations of the population
func populationEntropy(pop *mat.Dense) float64 {
	n, dim := pop.Dims()
	if n < 2 {
		return 0
	}
	h := 0.0
	for j := 0; j < dim; j++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += pop.At(i, j)
		}
		mean /= float64(n)
		varSum := 0.0
		for i := 0; i < n; i++ {
			d := pop.At(i, j) - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum/float64(n-1)) + 1e-12
		h += 0.5*(1+math.Log(2*math.Pi)) + math.Log(std)
	}
	return h / float64(dim)
}
