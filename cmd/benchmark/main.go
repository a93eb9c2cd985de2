package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"timetabler/internal/config"
	"timetabler/internal/sat"
	"timetabler/internal/schedule"
)

type testMetadata struct {
	Name       string
	Rooms      int
	Professors int
	Groups     int
	Sessions   int
}

type benchmarkResult struct {
	Solver   string
	Test     testMetadata
	Duration int64
	Status   schedule.Status
	Optimal  bool
}

var solvers = map[string]func() sat.Solver{
	"gophersat":     sat.NewGophersatSolver,
	"kissat":        sat.NewKissatSolver,
	"cadical":       sat.NewCadicalSolver,
	"cryptominisat": sat.NewCryptominisatSolver,
}

func main() {
	dirPtr := flag.String("dir", "testdata", "Directory holding the input configuration files")
	outPtr := flag.String("out", "benchmark.csv", "Path of the result CSV")
	budgetPtr := flag.Int("budget", 60, "Per-solve time budget in seconds")
	flag.Parse()

	tests := getTests(*dirPtr)
	results := make([]benchmarkResult, 0, len(tests)*len(solvers))

	for _, test := range tests {
		for name, constructor := range solvers {
			fmt.Printf("Benchmarking test %q with solver %q\n", test.Name, name)

			duration, status, optimal := measure(test.Name, constructor(), time.Duration(*budgetPtr)*time.Second)

			results = append(results, benchmarkResult{
				Solver:   name,
				Test:     test,
				Duration: duration,
				Status:   status,
				Optimal:  optimal,
			})
		}
	}

	toCsv(*outPtr, results)
}

func getTests(directory string) []testMetadata {
	entries, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]testMetadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		filename := filepath.Join(directory, entry.Name())
		cfg, err := config.Load(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		tests = append(tests, testMetadata{
			Name:       filename,
			Rooms:      len(cfg.Rooms),
			Professors: len(cfg.Professors),
			Groups:     len(cfg.Groups),
			Sessions:   len(cfg.Sessions),
		})
	}
	return tests
}

func measure(filename string, solver sat.Solver, budget time.Duration) (duration int64, status schedule.Status, optimal bool) {
	cfg, err := config.Load(filename)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	model, err := cfg.BuildModel()
	if err != nil {
		log.Fatalf("invalid model: %v", err)
	}

	started := time.Now()
	scheduler, err := schedule.NewScheduler(model, solver, schedule.Options{
		Budget:     budget,
		Priorities: cfg.Objective.Priorities,
		Logger:     zap.NewNop(),
	})
	if err != nil {
		return time.Since(started).Milliseconds(), schedule.StatusError, false
	}

	report, err := scheduler.Solve(context.Background())
	if err != nil {
		return time.Since(started).Milliseconds(), schedule.StatusError, false
	}
	return time.Since(started).Milliseconds(), report.Status, report.Optimal
}

func toCsv(path string, results []benchmarkResult) {
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("cannot create result file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"test", "rooms", "professors", "groups", "sessions", "solver", "duration_ms", "status", "optimal"}
	if err := writer.Write(header); err != nil {
		log.Fatalf("cannot write csv: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Test.Name,
			strconv.Itoa(result.Test.Rooms),
			strconv.Itoa(result.Test.Professors),
			strconv.Itoa(result.Test.Groups),
			strconv.Itoa(result.Test.Sessions),
			result.Solver,
			strconv.FormatInt(result.Duration, 10),
			string(result.Status),
			strconv.FormatBool(result.Optimal),
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("cannot write csv: %v", err)
		}
	}
}
