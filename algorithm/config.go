package algorithm

// Config carries the recognized run options named in spec.md §6: burn-in and
// post-burn-in iteration counts, an RNG seed, and (Neal8 only) the number of
// auxiliary blocks. Grounded on the struct-of-options idiom used by
// gonum.org/v1/gonum/optimize's Settings, exposed here through functional
// options rather than direct field assignment so zero values read as
// "unset" rather than "explicitly zero".
type Config struct {
	Burnin     int
	Iterations int
	Seed       uint64
	NAux       int
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithBurnin sets the number of discarded warm-up iterations.
func WithBurnin(b int) Option {
	return func(c *Config) { c.Burnin = b }
}

// WithIterations sets the number of post-burn-in iterations that are
// emitted to the Collector.
func WithIterations(n int) Option {
	return func(c *Config) { c.Iterations = n }
}

// WithSeed sets the RNG seed the run's Source is constructed from.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithNAux sets the number of Neal8 auxiliary blocks. Ignored by Neal2.
func WithNAux(m int) Option {
	return func(c *Config) { c.NAux = m }
}

func newConfig(opts []Option) Config {
	cfg := Config{Iterations: 1000, NAux: 3}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) validate(forNeal8 bool) error {
	if c.Burnin < 0 {
		return configErrorf("burnin", "must be >= 0")
	}
	if c.Iterations < 0 {
		return configErrorf("iterations", "must be >= 0")
	}
	if forNeal8 && c.NAux < 1 {
		return configErrorf("n_aux", "must be >= 1")
	}
	return nil
}
