package review

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/modules/review/services"
	"github.com/iota-uz/taskdesk/pkg/configuration"
	"github.com/iota-uz/taskdesk/pkg/eventbus"
)

// Module bundles the backend client, the event bus and the store built on them.
type Module struct {
	Config *configuration.Configuration
	Client *api.Client
	Bus    eventbus.EventBus
	Store  *services.Store
}

func NewModule(cfg *configuration.Configuration, opts ...services.Option) (*Module, error) {
	client, err := api.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger()
	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(t *services.Toast) {
		entry := logger.WithFields(logrus.Fields{
			"operation": t.Operation,
			"kind":      t.Kind,
		})
		if t.Kind == services.ToastError {
			entry.Warn(t.Message)
			return
		}
		entry.Info(t.Message)
	})
	return &Module{
		Config: cfg,
		Client: client,
		Bus:    bus,
		Store:  services.NewStore(client, bus, logger, opts...),
	}, nil
}

// Session is the configured caller identity.
func (m *Module) Session() domain.Session {
	return domain.Session{
		Token:  m.Config.API.Token,
		OrgID:  domain.ID(m.Config.API.OrgID),
		UserID: domain.ID(m.Config.API.UserID),
	}
}

// SupervisorID falls back to the session user when no supervisor is configured.
func (m *Module) SupervisorID() domain.ID {
	if id := domain.ID(m.Config.API.SupervisorID); !id.IsZero() {
		return id
	}
	return domain.ID(m.Config.API.UserID)
}
