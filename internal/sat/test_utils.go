package sat

import "math/rand/v2"

func GenerateInstance(variables int, clauses int) Instance {
	instance := Instance{
		Variables: variables,
		Clauses:   make([][]int, clauses),
	}

	for i := range clauses {
		instance.Clauses[i] = make([]int, 0, variables)
		for v := range variables {
			if rand.Float32() < 0.5 {
				sign := 1
				if rand.Float32() < 0.5 {
					sign = -1
				}
				instance.Clauses[i] = append(instance.Clauses[i], sign*(1+v))
			}
		}

		if len(instance.Clauses[i]) == 0 {
			sign := 1
			if rand.Float32() < 0.5 {
				sign = -1
			}
			instance.Clauses[i] = append(instance.Clauses[i], sign*(1+rand.IntN(variables)))
		}
	}

	return instance
}

func AssertModel(instance Instance, model Model) bool {
	if len(model) != instance.Variables {
		return false
	}
	return satisfies(instance, model)
}
