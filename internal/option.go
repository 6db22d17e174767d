package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	force   bool
	dryRun  bool
	watch   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithForce allows a conversion to clear an existing output directory.
func WithForce(force bool) Option {
	return func(a *application) {
		a.force = force
	}
}

// WithDryRun converts into a scratch directory with an in-memory history,
// leaving the output directory, side files and catalog untouched.
func WithDryRun(dryRun bool) Option {
	return func(a *application) {
		a.dryRun = dryRun
	}
}

// WithWatch reruns the conversion whenever an input file changes.
func WithWatch(watch bool) Option {
	return func(a *application) {
		a.watch = watch
	}
}

func newApplication(opts []Option) *application {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
