package core

// Step is one named unit of a flow. Execute reads and writes the shared
// MaestroContext; a non-nil error aborts the rest of the pipeline.
type Step struct {
	Name    string
	Execute func(ctx *MaestroContext) error
}

func NewStep(name string, execute func(ctx *MaestroContext) error) *Step {
	return &Step{
		Name:    name,
		Execute: execute,
	}
}
