package metrics

// Config selects the metric exporters to install.
type Config struct {
	ServiceName  string
	Prometheus   bool
	OTLPEndpoint string
	Insecure     bool
}

// Option mutates a Config.
type Option func(Config) Config

// WithServiceName sets the reported service name.
func WithServiceName(name string) Option {
	return func(c Config) Config {
		c.ServiceName = name
		return c
	}
}

// WithPrometheus enables the Prometheus reader.
func WithPrometheus() Option {
	return func(c Config) Config {
		c.Prometheus = true
		return c
	}
}

// WithOTLPEndpoint enables the OTLP gRPC reader against the given endpoint.
func WithOTLPEndpoint(endpoint string, insecure bool) Option {
	return func(c Config) Config {
		c.OTLPEndpoint = endpoint
		c.Insecure = insecure
		return c
	}
}

// NewConfig builds a Config from options.
func NewConfig(opts ...Option) Config {
	var cfg Config
	for _, o := range opts {
		cfg = o(cfg)
	}
	return cfg
}
