package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"retailops/internal/broker"
	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/logger"
)

// Base carries what every service binary shares: config, logger, the
// optional broker clients and the shutdown hooks registered while
// initializing.
type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Producer broker.Producer
	Consumer broker.Consumer

	mu    sync.Mutex
	hooks []shutdownHook
}

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// OnShutdown registers fn under name. Hooks run in reverse registration
// order, so whatever was opened first is closed last.
func (b *Base) OnShutdown(name string, fn func(ctx context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, shutdownHook{name: name, fn: fn})
}

// InitBroker opens the producer and consumer. With no broker configured both
// stay nil and the service runs without event fan-out.
func (b *Base) InitBroker(ctx context.Context, serviceName string) error {
	clients, err := broker.Open(b.Config.Broker, serviceName, b.Logger)
	if errors.Is(err, broker.ErrDisabled) {
		b.Logger.InfowCtx(ctx, "Broker disabled, events will not be published")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open broker: %w", err)
	}

	b.Producer = clients.Producer
	b.Consumer = clients.Consumer
	b.OnShutdown("broker", func(context.Context) error {
		return clients.Close()
	})
	return nil
}

// Shutdown runs every registered hook once under a shared timeout. Later
// calls find no hooks and return nil.
func (b *Base) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	hooks := b.hooks
	b.hooks = nil
	b.mu.Unlock()

	if len(hooks) == 0 {
		return nil
	}
	b.Logger.InfowCtx(ctx, "Shutting down application")

	ctx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}
