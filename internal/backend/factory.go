package backend

import (
	"context"
	"errors"
	"fmt"

	"vesta/internal/amqp"
	"vesta/internal/cache"
	"vesta/internal/household"
	"vesta/internal/log"
	"vesta/internal/metrics"
	"vesta/internal/storage"
	"vesta/internal/storage/file"
	"vesta/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a backend factory. A nil m leaves ports uninstrumented.
func NewFactory(logger *log.Logger, m *metrics.Metrics) *DefaultFactory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	port, err := f.createPort(config)
	if err != nil {
		return nil, err
	}

	if f.metrics != nil {
		port = storage.NewInstrumented(port, f.metrics)
	}

	var manager *cache.Manager
	if config.CacheSize > 0 {
		cached := storage.NewCached(port, config.CacheSize, config.CacheTTL)
		manager = cache.NewManager(f.logger)
		manager.Register(cached.Cache())
		if config.CacheCleanupInterval > 0 {
			manager.StartCleanup(config.CacheCleanupInterval)
		}
		port = cached
	}

	celebrator, client := f.createCelebrator(ctx, config)

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		"cache_size", config.CacheSize,
		"instrumented", f.metrics != nil,
		"amqp_enabled", client != nil)

	return &BackendResult{
		Port:       port,
		Celebrator: celebrator,
		Cleanup: func() error {
			var errs []error
			if manager != nil {
				manager.Stop()
			}
			if err := storage.Close(port); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			if client != nil {
				if err := client.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createPort(config Config) (storage.Port, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(), nil
	case FileBackend:
		p, err := file.New(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return p, nil
	case SQLiteBackend:
		p, err := storage.NewSQLitePort(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createCelebrator connects to the broker when configured. A broker that
// cannot be reached leaves celebrations disabled; the store works without them.
func (f *DefaultFactory) createCelebrator(ctx context.Context, config Config) (household.Celebrator, *amqp.Client) {
	if config.AMQPURL == "" {
		return household.CelebratorFunc(func(context.Context, household.Event) {}), nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without celebrations", log.FieldError, err)
		return household.CelebratorFunc(func(context.Context, household.Event) {}), nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return amqp.NewNotifier(client, f.logger), client
}

// OpenStore builds the backend and opens the household store on it. The
// returned cleanup flushes the store and then releases the backend.
func OpenStore(ctx context.Context, factory Factory, config Config, opts ...household.Option) (*household.Store, CleanupFunc, error) {
	res, err := factory.CreateBackend(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]household.Option{household.WithCelebrator(res.Celebrator)}, opts...)
	store := household.Open(ctx, res.Port, opts...)

	cleanup := func() error {
		flushErr := store.Close(context.WithoutCancel(ctx))
		return errors.Join(flushErr, res.Cleanup())
	}
	return store, cleanup, nil
}
