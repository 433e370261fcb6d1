package playable

// GraphBuilderOption is a functional option for configuring a Graph during construction.
type GraphBuilderOption func(*graph)

// WithGraphName is an option builder that sets the name of the Graph.
//
// Parameters:
//   - name: the graph name
//
// Returns:
//   - GraphBuilderOption: a function that applies the name option to a graph
func WithGraphName(name string) GraphBuilderOption {
	return func(g *graph) {
		g.name = name
	}
}
