package sat

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// runDIMACS feeds the instance to an external solver binary over stdin and
// interprets the SAT-competition conventions: exit code 10 stands for
// satisfiable, 20 for unsatisfiable, solution literals on "v" lines.
func runDIMACS(ctx context.Context, instance Instance, binary string, args ...string) (Result, error) {
	dimacs := instance.ToDIMACS()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(dimacs)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	err := cmd.Run()
	if ctx.Err() != nil {
		// The process was killed by the context: budget exhausted, not a failure.
		return Result{Status: Unknown}, nil
	}

	exitCode := cmd.ProcessState.ExitCode()
	if err != nil && exitCode != 10 && exitCode != 20 {
		return Result{}, fmt.Errorf("%v execution failed: %v : %v", binary, err, stdErr.String())
	} else if exitCode == 20 {
		return Result{Status: Unsatisfiable}, nil
	}

	model, err := parseModel(stdOut.String(), instance.Variables)
	if err != nil {
		return Result{}, fmt.Errorf("%v produced an unreadable solution: %v", binary, err)
	}
	return Result{Status: Satisfiable, Model: model}, nil
}

func parseModel(solverOutput string, variables int) (Model, error) {
	valueLines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return len(line) > 0 && line[0] == 'v'
	})
	if len(valueLines) == 0 {
		return nil, fmt.Errorf("no value lines in output")
	}

	model := make(Model, variables)
	for _, line := range valueLines {
		for _, token := range strings.Fields(line[1:]) {
			literal, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("invalid literal %q: %v", token, err)
			}
			if literal == 0 {
				return model, nil
			}
			variable := literal
			if variable < 0 {
				variable = -variable
			}
			if variable > variables {
				// Relaxed solvers may number past the declared count; those
				// variables are not ours to decode.
				continue
			}
			model[variable-1] = literal > 0
		}
	}
	return model, nil
}
