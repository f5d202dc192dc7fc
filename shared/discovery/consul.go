package discovery

import (
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Config holds Consul agent settings. An empty Addr disables registration.
type Config struct {
	Addr        string        `env:"ADDR"`
	ServiceName string        `env:"SERVICE_NAME" envDefault:"portfolio-api"`
	ServiceHost string        `env:"SERVICE_HOST" envDefault:"localhost"`
	ServicePort int           `env:"SERVICE_PORT" envDefault:"8080"`
	CheckPath   string        `env:"CHECK_PATH" envDefault:"/healthz"`
	Interval    time.Duration `env:"CHECK_INTERVAL" envDefault:"10s"`
}

// Registrar registers the HTTP service with a Consul agent.
type Registrar struct {
	cfg       Config
	agent     *api.Agent
	serviceID string
	logger    *zerolog.Logger
}

// NewRegistrar connects to the Consul agent. It returns nil when disabled.
func NewRegistrar(cfg Config, logger *zerolog.Logger) (*Registrar, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.Addr

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registrar{
		cfg:       cfg,
		agent:     client.Agent(),
		serviceID: ServiceID(cfg),
		logger:    logger,
	}, nil
}

// ServiceID is the instance ID registered with the agent.
func ServiceID(cfg Config) string {
	return fmt.Sprintf("%s-%s-%d", cfg.ServiceName, cfg.ServiceHost, cfg.ServicePort)
}

// Registration builds the agent registration payload.
func Registration(cfg Config) *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      ServiceID(cfg),
		Name:    cfg.ServiceName,
		Address: cfg.ServiceHost,
		Port:    cfg.ServicePort,
		Tags:    []string{"http", "api"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", cfg.ServiceHost, cfg.ServicePort, cfg.CheckPath),
			Interval:                       cfg.Interval.String(),
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Register adds the service to the agent.
func (r *Registrar) Register() error {
	if r == nil {
		return nil
	}
	if err := r.agent.ServiceRegister(Registration(r.cfg)); err != nil {
		return fmt.Errorf("register service with consul: %w", err)
	}
	r.logger.Info().Str("service_id", r.serviceID).Msg("registered with consul")
	return nil
}

// Deregister removes the service from the agent.
func (r *Registrar) Deregister() error {
	if r == nil {
		return nil
	}
	if err := r.agent.ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("deregister service from consul: %w", err)
	}
	r.logger.Info().Str("service_id", r.serviceID).Msg("deregistered from consul")
	return nil
}
