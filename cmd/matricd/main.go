// Command matricd is the process entrypoint: it loads configuration from
// the environment, wires every component's constructors together, and runs
// the job scheduler until terminated. There is no HTTP/REST surface or CLI
// framework here — both are out of scope (spec.md's Non-goals) and left to
// a separate binary that imports these same packages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/blobstore"
	"github.com/fortemi/matric/internal/discovery"
	"github.com/fortemi/matric/internal/extraction"
	"github.com/fortemi/matric/internal/jobq"
	"github.com/fortemi/matric/internal/matricconfig"
	"github.com/fortemi/matric/internal/matriclog"
	"github.com/fortemi/matric/internal/provider"
	"github.com/fortemi/matric/internal/scheduler"
	"github.com/fortemi/matric/internal/search"
	"github.com/fortemi/matric/internal/tagresolver"
	"github.com/fortemi/matric/internal/webhook"
)

func main() {
	cfg := matricconfig.NewEnvConfig("MATRIC")

	logger := matriclog.New(matriclog.Config{
		Level:   matriclog.Level(cfg.GetString("LOG_LEVEL", "info")),
		Format:  cfg.GetString("LOG_FORMAT", "json"),
		Service: "matricd",
	})
	log := matriclog.NewContext(logger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.MustGetString("DATABASE_URL"))
	if err != nil {
		log.WithFields(map[string]any{"error": err}).Error("connect to database")
		os.Exit(1)
	}
	defer pool.Close()

	blobs, err := blobstore.New(blobstore.Kind(cfg.GetString("BLOB_BACKEND", "filesystem")), cfg.GetString("BLOB_ROOT", "./data/blobs"))
	if err != nil {
		log.WithFields(map[string]any{"error": err}).Error("construct blob backend")
		os.Exit(1)
	}
	_ = blobs // handed to the attachment store once an HTTP surface exists to drive it

	providers := provider.NewRegistry("ollama", log)
	providers.Register(provider.Config{
		ID:           "ollama",
		BaseURL:      cfg.GetString("OLLAMA_BASE_URL", "http://localhost:11434"),
		Capabilities: []provider.Capability{provider.CapabilityGeneration, provider.CapabilityEmbedding, provider.CapabilityVision},
		Timeout:      cfg.GetDuration("OLLAMA_TIMEOUT", 120*time.Second),
		IsDefault:    true,
	})

	if openaiKey := cfg.GetString("OPENAI_API_KEY", ""); openaiKey != "" {
		providers.Register(provider.Config{
			ID:           "openai",
			BaseURL:      cfg.GetString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:       openaiKey,
			Capabilities: []provider.Capability{provider.CapabilityGeneration, provider.CapabilityEmbedding, provider.CapabilityVision},
			Timeout:      cfg.GetDuration("OPENAI_TIMEOUT", 60*time.Second),
		})
	}

	// Probe the local provider for installed models and log matric's
	// recommended generation/embedding configuration; this is advisory
	// only (an operator reads it from the logs) since no config-writing
	// surface exists yet to apply it automatically.
	disco := discovery.NewModelDiscovery(cfg.GetString("OLLAMA_BASE_URL", "http://localhost:11434"), discovery.HardwareTier(cfg.GetInt("HARDWARE_TIER", int(discovery.HardwareMainstream))))
	if result, err := disco.Discover(ctx); err != nil {
		log.WithFields(map[string]any{"error": err}).Warn("model discovery failed, continuing with configured defaults")
	} else {
		log.WithFields(map[string]any{"summary": result.Summary()}).Info("model discovery complete")
	}

	visionBackend, err := providers.ResolveGeneration(cfg.GetString("VISION_MODEL", "ollama:llava"))
	if err != nil {
		log.WithFields(map[string]any{"error": err}).Warn("no vision backend resolved, vision extraction will fail and video/GLB extraction will carry no frame descriptions")
		visionBackend = nil
	}
	extractors := extraction.NewDefaultRegistry(visionBackend, cfg.GetString("VISION_MODEL", "ollama:llava"))
	_ = extractors // not yet handed to any job handler: none is registered below

	queue := jobq.NewQueue(pool)
	handlers := scheduler.NewRegistry()
	// No job handlers (embedding, title generation, revision, linking,
	// extraction) are registered on this registry: each needs an
	// archive.SchemaContext resolved from the job's schema key at claim
	// time, not at process start, and nothing in this binary builds them.

	bus := scheduler.NewBus(cfg.GetInt("EVENT_BUS_CAPACITY", 256))
	pause := scheduler.NewPauseState()

	var wake scheduler.WakeNotifier
	if redisURL := cfg.GetString("REDIS_URL", ""); redisURL != "" {
		wake, err = scheduler.NewRedisWakeSignal(ctx, redisURL)
		if err != nil {
			log.WithFields(map[string]any{"error": err}).Error("connect to redis wake signal")
			os.Exit(1)
		}
	}

	sched := scheduler.New(queue, handlers, pause, bus, wake, nil, nil, scheduler.Config{
		MaxConcurrent: cfg.GetInt("SCHEDULER_MAX_CONCURRENT", 4),
		PollInterval:  cfg.GetDuration("SCHEDULER_POLL_INTERVAL", 60*time.Second),
		JobTimeout:    cfg.GetDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		MaxRetries:    cfg.GetInt("SCHEDULER_MAX_RETRIES", 5),
	}, log)

	// Wired but not yet driven by anything: these are the services an
	// eventual HTTP/RPC surface calls into per request, each opening its
	// own archive.SchemaContext from pool per call.
	searchSvc := search.NewService(providers, log)
	_ = searchSvc
	tagResolver := tagresolver.New()
	_ = tagResolver
	webhooks := webhook.NewRepository(pool)
	_ = webhooks

	log.Info("matricd starting")
	sched.Run(ctx)
	log.Info("matricd stopped")
}
