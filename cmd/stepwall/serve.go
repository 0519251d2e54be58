package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shaiso/Stepwall/internal/api"
	"github.com/shaiso/Stepwall/internal/config"
	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/mq"
	"github.com/shaiso/Stepwall/internal/providers"
	"github.com/shaiso/Stepwall/internal/repo"
	"github.com/shaiso/Stepwall/internal/steps"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	configPath    string
	publishEvents bool
	frames        int
	once          bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the step engine and the admin API",
		Long: `Run the step engine and the admin API.

Infrastructure is connected only when the configuration needs it:
  Postgres  — for the sessions provider (DB_URL)
  RabbitMQ  — for a tweets queue or --publish-events (RABBITMQ_URL)
  Redis     — for the wordcloud provider or word_key (REDIS_URL)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default $STEPWALL_CONFIG or stepwall.yaml)")
	cmd.Flags().BoolVar(&opts.publishEvents, "publish-events", false, "Publish step events to RabbitMQ")
	cmd.Flags().IntVar(&opts.frames, "frames", 100, "Number of recent frames kept for the API")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Exit when the engine stops")

	return cmd
}

// infra — внешние подключения процесса. Все поля опциональны.
type infra struct {
	sessions  *repo.SessionRepo
	mqConn    *mq.Connection
	publisher *mq.Publisher
	redis     *redis.Client
	closers   []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	logger := telemetry.SetupLogger()

	env := config.FromEnv()
	if opts.configPath != "" {
		env.ConfigPath = opts.configPath
	}

	settings, err := config.Load(env.ConfigPath)
	if err != nil {
		return err
	}
	logger.Info("starting stepwall",
		"version", version,
		"config", env.ConfigPath,
		"steps", len(settings.Steps),
		"providers", len(settings.DataProviders),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, err := openInfra(ctx, env, settings, opts, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	// Display и реестр
	display := steps.NewRecordingDisplay(steps.NewLogDisplay(logger), opts.frames)

	registry := engine.NewRegistry()
	providers.Register(registry, providers.Infra{
		MQ:       deps.mqConn,
		Sessions: sessionSource(deps.sessions),
		Redis:    deps.redis,
		Logger:   logger,
	})
	steps.Register(registry, display)

	res, err := engine.Resolve(settings, registry, logger)
	if err != nil {
		return err
	}

	// Observers
	observers := engine.MultiObserver{
		engine.NewMetricsObserver(telemetry.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if opts.publishEvents {
		if deps.publisher != nil {
			observers = append(observers, mq.NewEventObserver(deps.publisher))
		} else {
			logger.Warn("step events are not published: RabbitMQ is not available")
		}
	}

	eng := engine.New(res, engine.Config{
		Observer: observers,
		Logger:   logger,
	})
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close providers", "error", err)
		}
	}()

	// Admin API
	apiCfg := api.Config{
		Engine:     eng,
		Frames:     display,
		Gatherer:   prometheus.DefaultGatherer,
		RunContext: ctx,
		Logger:     logger,
	}
	if sink := tweetSink(res.Context, deps.publisher); sink != nil {
		apiCfg.Tweets = sink
	}
	if deps.sessions != nil {
		apiCfg.Schedule = deps.sessions
	}

	server := &http.Server{
		Addr:              env.AdminAddr(),
		Handler:           api.NewHandler(apiCfg).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("admin api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := eng.Start(ctx); err != nil {
		return err
	}

	var engineDone <-chan struct{}
	if opts.once {
		engineDone = eng.Done()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-engineDone:
		logger.Info("engine stopped, exiting")
	case err := <-serverErr:
		runErr = fmt.Errorf("admin api: %w", err)
	}

	// Graceful shutdown с таймаутом
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	eng.Stop()
	logger.Info("stopped")
	return runErr
}

// openInfra подключает Postgres, RabbitMQ и Redis, если они нужны конфигурации.
// Postgres и Redis обязательны для своих provider'ов; без RabbitMQ
// процесс продолжает работу с прямым приёмом сообщений.
func openInfra(ctx context.Context, env config.Env, settings domain.Settings, opts serveOptions, logger *slog.Logger) (*infra, error) {
	deps := &infra{}

	if usesProvider(settings, "sessions") {
		pool, err := repo.NewPool(ctx, env.DatabaseURL)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		deps.closers = append(deps.closers, pool.Close)
		deps.sessions = repo.NewSessionRepo(pool)
		logger.Info("database connected")
	}

	if usesProvider(settings, "tweets") || opts.publishEvents {
		conn, err := mq.NewConnection(env.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, tweets are accepted directly", "error", err)
		} else {
			deps.closers = append(deps.closers, func() { conn.Close() })
			deps.mqConn = conn
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			deps.publisher = mq.NewPublisher(conn, logger)
		}
	}

	if usesProvider(settings, "wordcloud") || usesWordKey(settings) {
		client, err := openRedis(ctx, env.RedisURL)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.closers = append(deps.closers, func() { client.Close() })
		deps.redis = client
		logger.Info("redis connected")
	}

	return deps, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func usesProvider(settings domain.Settings, id string) bool {
	for _, def := range settings.DataProviders {
		if def.DataProvider == id {
			return true
		}
	}
	return false
}

func usesWordKey(settings domain.Settings) bool {
	for _, def := range settings.DataProviders {
		if def.DataProvider != "tweets" {
			continue
		}
		if key, _ := def.Config["word_key"].(string); key != "" {
			return true
		}
	}
	return false
}

// sessionSource не даёт nil *SessionRepo превратиться в непустой интерфейс.
func sessionSource(r *repo.SessionRepo) providers.SlotSource {
	if r == nil {
		return nil
	}
	return r
}

// tweetSink выбирает, куда admin API отправляет новые сообщения.
// Если provider слушает очередь входящих, сообщение идёт через брокер;
// иначе кладётся прямо в буфер provider'а.
func tweetSink(mc *engine.MachineContext, publisher *mq.Publisher) api.TweetSink {
	tp, err := engine.ProviderAs[*providers.TweetProvider](mc, providers.CapabilityTweets)
	if err != nil {
		if publisher != nil {
			return publisher
		}
		return nil
	}

	if publisher != nil && tp.Queue() == string(mq.QueueTweetsIncoming) {
		return publisher
	}
	return tp
}
