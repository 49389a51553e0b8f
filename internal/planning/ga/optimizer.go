// Package ga implements C4, the genetic optimizer over per-cargo route
// choices. An individual is one route index per cargo in canonical order;
// fitness is the total margin of the simulated plan, minus a small
// complexity penalty that breaks ties toward simpler itineraries.
//
// All randomness flows from a single seed. Fitness evaluation fans out to
// a worker pool and joins at a generation barrier; selection, crossover
// and mutation run in the orchestrator afterwards, so results are
// byte-identical across runs and worker counts.
package ga

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/planning/simulate"
)

// complexityPenalty is charged per itinerary leg so two plans with equal
// margin prefer the one with fewer connections.
const complexityPenalty = 0.01

// onTimeBias is the initialization probability of sampling among a
// cargo's on-time options when any exist.
const onTimeBias = 0.7

// Individual is one member of the population.
type Individual struct {
	Genes   []int
	Fitness float64
}

// Outcome is what Optimize hands back: the winning individual, its fully
// materialized simulation, and how the search terminated.
type Outcome struct {
	BestGenes   []int
	Best        simulate.Result
	BestFitness float64
	Generations int
	TimedOut    bool
}

// Optimizer runs the generational loop against a fixed world.
type Optimizer struct {
	world   *simulate.World
	cfg     config.Config
	workers int
}

// New builds an Optimizer. Worker count defaults to GOMAXPROCS.
func New(world *simulate.World, cfg config.Config) *Optimizer {
	return &Optimizer{world: world, cfg: cfg, workers: runtime.GOMAXPROCS(0)}
}

// Optimize searches for the best route choice per cargo. It honors ctx at
// each generation barrier and the configured wall-clock budget; on either
// expiry the best individual found so far is returned (with TimedOut set
// for the budget case). The returned error is non-nil only for context
// cancellation.
func (o *Optimizer) Optimize(ctx context.Context) (Outcome, error) {
	rng := rand.New(rand.NewSource(o.cfg.Seed))

	n := len(o.world.Cargo)
	if n == 0 {
		res := simulate.Run(o.world, nil)
		return Outcome{Best: res, BestFitness: fitness(res)}, nil
	}

	var deadline time.Time
	if budget := o.cfg.OptimizationBudget(); budget > 0 {
		deadline = time.Now().Add(budget)
	}

	pop := make([]Individual, o.cfg.PopulationSize)
	for i := range pop {
		pop[i] = Individual{Genes: o.randomGenes(rng)}
	}
	o.evaluate(ctx, pop)

	best := clone(fittest(pop))
	bestResult := simulate.Run(o.world, best.Genes)
	stagnant := 0
	generation := 0

	for generation = 1; generation <= o.cfg.Generations; generation++ {
		select {
		case <-ctx.Done():
			return Outcome{BestGenes: best.Genes, Best: bestResult, BestFitness: best.Fitness, Generations: generation - 1}, ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return Outcome{BestGenes: best.Genes, Best: bestResult, BestFitness: best.Fitness, Generations: generation - 1, TimedOut: true}, nil
		}

		next := make([]Individual, 0, len(pop))
		for i := 0; i < o.cfg.Elitism && i < len(pop); i++ {
			next = append(next, clone(best))
		}
		for len(next) < len(pop) {
			a := o.tournament(rng, pop)
			b := o.tournament(rng, pop)
			ca, cb := o.crossover(rng, a, b)
			o.mutate(rng, ca)
			if len(next)+1 < len(pop) {
				o.mutate(rng, cb)
				next = append(next, ca, cb)
			} else {
				next = append(next, ca)
			}
		}
		pop = next
		o.evaluate(ctx, pop)

		if champion := fittest(pop); champion.Fitness > best.Fitness {
			best = clone(champion)
			bestResult = simulate.Run(o.world, best.Genes)
			stagnant = 0
		} else {
			stagnant++
			if stagnant >= o.cfg.StagnationLimit {
				break
			}
		}
	}
	if generation > o.cfg.Generations {
		generation = o.cfg.Generations
	}

	return Outcome{BestGenes: best.Genes, Best: bestResult, BestFitness: best.Fitness, Generations: generation}, nil
}

// randomGenes samples one route index per cargo, biased toward on-time
// itineraries when the cargo has any.
func (o *Optimizer) randomGenes(rng *rand.Rand) []int {
	genes := make([]int, len(o.world.Cargo))
	for i := range genes {
		options := o.world.Catalog[i]
		var onTime []int
		for j, opt := range options {
			if opt.OnTime && !opt.Denied {
				onTime = append(onTime, j)
			}
		}
		if len(onTime) > 0 && rng.Float64() < onTimeBias {
			genes[i] = onTime[rng.Intn(len(onTime))]
		} else {
			genes[i] = rng.Intn(len(options))
		}
	}
	return genes
}

// evaluate computes fitness for every individual via the worker pool and
// blocks until the whole generation is done. Each worker writes only its
// own slots, so no locking is needed.
func (o *Optimizer) evaluate(ctx context.Context, pop []Individual) {
	jobs := make(chan int, len(pop))
	for i := range pop {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res := simulate.Run(o.world, pop[i].Genes)
				pop[i].Fitness = fitness(res)
			}
		}()
	}
	wg.Wait()
}

func fitness(res simulate.Result) float64 {
	legs := 0
	for _, asg := range res.Assignments {
		legs += len(asg.Route.Legs)
	}
	return res.TotalMargin - complexityPenalty*float64(legs)
}

// tournament draws k individuals uniformly and returns the fittest.
func (o *Optimizer) tournament(rng *rand.Rand, pop []Individual) Individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < o.cfg.TournamentSize; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// crossover swaps suffixes at a uniform locus with probability
// CrossoverRate, otherwise returns copies of the parents.
func (o *Optimizer) crossover(rng *rand.Rand, a, b Individual) (Individual, Individual) {
	ca, cb := clone(a), clone(b)
	if len(ca.Genes) < 2 || rng.Float64() >= o.cfg.CrossoverRate {
		return ca, cb
	}
	locus := 1 + rng.Intn(len(ca.Genes)-1)
	for i := locus; i < len(ca.Genes); i++ {
		ca.Genes[i], cb.Genes[i] = cb.Genes[i], ca.Genes[i]
	}
	return ca, cb
}

// mutate resamples each gene independently with probability MutationRate.
func (o *Optimizer) mutate(rng *rand.Rand, ind Individual) {
	for i := range ind.Genes {
		if rng.Float64() < o.cfg.MutationRate {
			ind.Genes[i] = rng.Intn(len(o.world.Catalog[i]))
		}
	}
}

func fittest(pop []Individual) Individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}

func clone(ind Individual) Individual {
	genes := make([]int, len(ind.Genes))
	copy(genes, ind.Genes)
	return Individual{Genes: genes, Fitness: ind.Fitness}
}
