package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"timetabler/internal/config"
	"timetabler/internal/sat"
	"timetabler/internal/schedule"
)

var days = map[int]string{
	0: "Monday",
	1: "Tuesday",
	2: "Wednesday",
	3: "Thursday",
	4: "Friday",
	5: "Saturday",
	6: "Sunday",
}

var (
	validSolvers = []string{"gophersat", "kissat", "cadical", "cryptominisat"}
	solvers      = map[string]func() sat.Solver{
		"gophersat":     sat.NewGophersatSolver,
		"kissat":        sat.NewKissatSolver,
		"cadical":       sat.NewCadicalSolver,
		"cryptominisat": sat.NewCryptominisatSolver,
	}
)

type assignmentOutput struct {
	Session   string `json:"session"`
	Professor string `json:"professor"`
	Room      string `json:"room"`
	Day       string `json:"day"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Weeks     string `json:"weeks"`
}

type reportOutput struct {
	Status      string             `json:"status"`
	Optimal     bool               `json:"optimal"`
	Message     string             `json:"message,omitempty"`
	Assignments []assignmentOutput `json:"assignments,omitempty"`
}

func main() {
	filePtr := flag.String("file", "", "Path to the input configuration file")
	outPtr := flag.String("out", "", "Path to the output file; if empty, the timetable is written to the standard output")
	solverPtr := flag.String("solver", "", `SAT backend to use. Allowed values are: "gophersat", "kissat", "cadical", "cryptominisat"; empty defers to the configuration (default "gophersat")`)
	budgetPtr := flag.Int("budget", 0, "Time budget in seconds; overrides the configuration when positive")
	verbosePtr := flag.Bool("verbose", false, "Log engine progress to stderr")
	flag.Parse()

	if *filePtr == "" {
		log.Fatal("an input file must be specified")
	}

	cfg, err := config.Load(*filePtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	backend := strings.ToLower(*solverPtr)
	if backend == "" {
		backend = cfg.Solver.Backend
	}
	if backend == "" {
		backend = "gophersat"
	}
	if !slices.Contains(validSolvers, backend) {
		log.Fatalf("%v is not a valid solver", backend)
	}

	budget := cfg.Solver.Budget()
	if *budgetPtr > 0 {
		budget = time.Duration(*budgetPtr) * time.Second
	}

	logger := zap.NewNop()
	if *verbosePtr {
		logger = zap.Must(zap.NewDevelopment())
		defer logger.Sync()
	}

	model, err := cfg.BuildModel()
	if err != nil {
		log.Fatalf("invalid model: %v", err)
	}

	scheduler, err := schedule.NewScheduler(model, solvers[backend](), schedule.Options{
		Budget:     budget,
		Priorities: cfg.Objective.Priorities,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("cannot build schedule model: %v", err)
	}

	report, err := scheduler.Solve(context.Background())
	if err != nil {
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	output := reportOutput{
		Status:  string(report.Status),
		Optimal: report.Optimal,
		Message: report.Message,
	}
	for _, assignment := range report.Assignments {
		first := scheduler.Grid().Slot(assignment.Slots[0])
		last := scheduler.Grid().Slot(assignment.Slots[len(assignment.Slots)-1])
		output.Assignments = append(output.Assignments, assignmentOutput{
			Session:   assignment.SessionID,
			Professor: assignment.ProfessorID,
			Room:      assignment.RoomID,
			Day:       days[assignment.Day],
			Start:     clock(first.Start),
			End:       clock(last.End()),
			Weeks:     assignment.Pattern.String(),
		})
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("an error occurred while building output json: %v", err)
	}

	if *outPtr == "" {
		fmt.Println(string(encoded))
	} else if err := os.WriteFile(*outPtr, encoded, 0666); err != nil {
		log.Fatalf("an error occurred while writing to the output file: %v", err)
	}

	switch report.Status {
	case schedule.StatusSolved:
		os.Exit(10)
	case schedule.StatusInfeasible:
		os.Exit(20)
	case schedule.StatusTimedOut:
		os.Exit(30)
	default:
		os.Exit(1)
	}
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
