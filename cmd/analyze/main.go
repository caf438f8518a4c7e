// Command analyze runs many headless races with no delay and prints
// human-readable statistics: who wins, how races end, how long they take
// and how often Marvin strikes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/looney-race/game/engine"
)

// RaceStats summarizes a single race
type RaceStats struct {
	Winner       engine.Marker `json:"winner,omitempty"`
	Reason       engine.Reason `json:"reason"`
	Cycles       int           `json:"cycles"`
	Eliminations int           `json:"eliminations"`
	Thefts       int           `json:"thefts"`
	Relocations  int           `json:"relocations"`
}

// Summary aggregates many races
type Summary struct {
	Races             int                   `json:"races"`
	Wins              map[string]int        `json:"wins"`
	Reasons           map[engine.Reason]int `json:"reasons"`
	AverageCycles     float64               `json:"average_cycles"`
	MinCycles         int                   `json:"min_cycles"`
	MaxCycles         int                   `json:"max_cycles"`
	TotalEliminations int                   `json:"total_eliminations"`
	TotalThefts       int                   `json:"total_thefts"`
	TotalRelocations  int                   `json:"total_relocations"`
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "run headless Looney races and print statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "races",
				Value: 1000,
				Usage: "number of races to run",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "races run in parallel (default: number of CPUs)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the summary as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			races := int(cmd.Int("races"))
			if races < 1 {
				return fmt.Errorf("races must be positive, got %d", races)
			}
			workers := int(cmd.Int("workers"))
			if workers < 1 {
				workers = runtime.NumCPU()
			}

			summary, err := analyze(ctx, races, workers)
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(os.Stdout, summary)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// runOne plays a race to the end and collects its stats
func runOne() (RaceStats, error) {
	race, err := engine.NewRace(engine.DefaultRules(), engine.WithDelay(0))
	if err != nil {
		return RaceStats{}, err
	}

	result, err := race.Run()
	if err != nil {
		return RaceStats{}, err
	}

	stats := RaceStats{
		Reason: result.Reason,
		Cycles: result.Cycles,
	}
	if result.Winner != nil {
		stats.Winner = result.Winner.Symbol
	}
	for _, ev := range race.Events() {
		switch ev.Type {
		case engine.EventElimination:
			stats.Eliminations++
		case engine.EventTheft:
			stats.Thefts++
		case engine.EventRelocation:
			stats.Relocations++
		}
	}
	return stats, nil
}

// analyze runs races on a pool of workers
func analyze(ctx context.Context, races, workers int) (*Summary, error) {
	return analyzeWith(ctx, races, workers, runOne)
}

// analyzeWith runs races with run. The first error stops the pool.
func analyzeWith(ctx context.Context, races, workers int, run func() (RaceStats, error)) (*Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan struct{})
	results := make(chan RaceStats)

	var (
		errOnce  sync.Once
		firstErr error
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				stats, err := run()
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					cancel()
					return
				}
				results <- stats
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < races; i++ {
			select {
			case jobs <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	all := make([]RaceStats, 0, races)
	for stats := range results {
		all = append(all, stats)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return summarize(all), nil
}

// summarize aggregates race stats
func summarize(all []RaceStats) *Summary {
	s := &Summary{
		Races:   len(all),
		Wins:    make(map[string]int),
		Reasons: make(map[engine.Reason]int),
	}
	if len(all) == 0 {
		return s
	}

	total := 0
	s.MinCycles = all[0].Cycles
	for _, r := range all {
		if r.Winner != 0 {
			s.Wins[r.Winner.String()]++
		}
		s.Reasons[r.Reason]++
		total += r.Cycles
		if r.Cycles < s.MinCycles {
			s.MinCycles = r.Cycles
		}
		if r.Cycles > s.MaxCycles {
			s.MaxCycles = r.Cycles
		}
		s.TotalEliminations += r.Eliminations
		s.TotalThefts += r.Thefts
		s.TotalRelocations += r.Relocations
	}
	s.AverageCycles = float64(total) / float64(len(all))

	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// printSummary writes the summary as text
func printSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\n=== %d races ===\n", s.Races)

	fmt.Fprintln(w, "\nWins:")
	for _, c := range engine.Cast {
		n := s.Wins[c.Symbol.String()]
		fmt.Fprintf(w, "  %c %-11s %6d (%5.1f%%)\n", c.Symbol, c.Name, n, percent(n, s.Races))
	}

	fmt.Fprintln(w, "\nFinish reasons:")
	reasons := make([]string, 0, len(s.Reasons))
	for r := range s.Reasons {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		n := s.Reasons[engine.Reason(r)]
		fmt.Fprintf(w, "  %-10s %6d (%5.1f%%)\n", r, n, percent(n, s.Races))
	}

	fmt.Fprintf(w, "\nCycles: avg %.1f, min %d, max %d\n", s.AverageCycles, s.MinCycles, s.MaxCycles)
	if s.Races > 0 {
		fmt.Fprintf(w, "Per race: %.2f eliminations, %.2f thefts, %.2f relocations\n",
			float64(s.TotalEliminations)/float64(s.Races),
			float64(s.TotalThefts)/float64(s.Races),
			float64(s.TotalRelocations)/float64(s.Races))
	}
}
