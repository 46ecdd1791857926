package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/dgraph-io/badger/v4"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/flamel/flamel/internal/geometry"
	"github.com/flamel/flamel/internal/httputil"
	"github.com/flamel/flamel/internal/storageprovider"
	"github.com/flamel/flamel/internal/storageutil"
)

type environment struct {
	config ServiceConfig

	store           storageutil.ObjectHandler
	snapshotsBucket *blob.Bucket
	badgerDB        *badger.DB
	snapshotsWriter *kafka.Writer

	projector geometry.Projector
}

func newEnvironment(ctx context.Context) (*environment, error) {
	var e environment
	if err := cleanenv.ReadEnv(&e.config); err != nil {
		return nil, err
	}
	e.projector = geometry.NewProjector()

	if e.config.BucketURL != "" {
		bucket, err := blob.OpenBucket(ctx, e.config.BucketURL)
		if err != nil {
			return nil, err
		}
		e.snapshotsBucket = bucket
		e.store = &storageprovider.Blob{Bucket: bucket}
	} else {
		db, err := badger.Open(badger.DefaultOptions(e.config.BadgerPath))
		if err != nil {
			return nil, err
		}
		e.badgerDB = db
		e.store = &storageprovider.Badger{DB: db}
	}

	if len(e.config.SnapshotsKafkaBrokers) > 0 {
		e.snapshotsWriter = &kafka.Writer{
			Addr:         kafka.TCP(e.config.SnapshotsKafkaBrokers...),
			Async:        true,
			Balancer:     kafka.CRC32Balancer{},
			BatchSize:    10,
			ReadTimeout:  3 * time.Second,
			Topic:        e.config.SnapshotsKafkaTopic,
			WriteTimeout: 3 * time.Second,
		}
	}

	return &e, nil
}

func (e *environment) shutdown() {
	if e.snapshotsBucket != nil {
		if err := e.snapshotsBucket.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.badgerDB != nil {
		if err := e.badgerDB.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.snapshotsWriter != nil {
		if err := e.snapshotsWriter.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodPost, "/flamegraphs", e.postFlamegraph},
		{http.MethodGet, "/flamegraphs/:flamegraph_id", e.getFlamegraph},
		{http.MethodGet, "/flamegraphs/:flamegraph_id/chart", e.getFlamegraphChart},
		{http.MethodPost, "/flamegraphs/:flamegraph_id/view", e.postFlamegraphView},
		{http.MethodPost, "/batch", e.postFlamegraphBatch},
	}

	router := httprouter.New()

	for _, route := range routes {
		handlerFunc := httputil.DecompressPayload(route.handler)
		handler := compress(handlerFunc)

		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func (e *environment) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the flame graph HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.Context())
			if err != nil {
				return err
			}

			err = sentry.Init(sentry.ClientOptions{
				Dsn:              env.config.SentryDSN,
				EnableTracing:    true,
				Environment:      env.config.Environment,
				Release:          release,
				TracesSampleRate: 1.0,
			})
			if err != nil {
				return err
			}

			router, err := env.newRouter()
			if err != nil {
				sentry.CaptureException(err)
				return err
			}

			server := http.Server{
				Addr:    ":" + env.config.Port,
				Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
			}

			waitForShutdown := make(chan struct{})
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGTERM)
				<-c

				cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := server.Shutdown(cctx); err != nil {
					sentry.CaptureException(err)
					log.Err(err).Msg("error shutting down server")
				}

				close(waitForShutdown)
			}()

			log.Info().Str("port", env.config.Port).Msg("serving flame graphs")
			err = server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				sentry.CaptureException(err)
				log.Err(err).Msg("server failed")
			}

			<-waitForShutdown

			// Shutdown the rest of the environment after the HTTP
			// connections are closed.
			env.shutdown()
			return nil
		},
	}
}
