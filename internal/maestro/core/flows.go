package core

// Flow is an ordered pipeline of steps sharing one MaestroContext.
type Flow interface {
	Name() string
	Steps() []*Step
}

type flow struct {
	name  string
	steps []*Step
}

func NewFlow(name string, steps ...*Step) Flow {
	return &flow{name: name, steps: steps}
}

func (f *flow) Name() string   { return f.name }
func (f *flow) Steps() []*Step { return f.steps }
