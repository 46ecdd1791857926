package main

type (
	ServiceConfig struct {
		Environment string `env:"FLAMEL_ENVIRONMENT" env-default:"development"`
		Port        string `env:"PORT" env-default:"8080"`

		SentryDSN string `env:"SENTRY_DSN"`

		// BucketURL takes precedence when set, e.g.
		// file:///var/lib/flamel?create_dir=1 or gs://flamel-snapshots.
		BucketURL  string `env:"FLAMEL_BUCKET_URL"`
		BadgerPath string `env:"FLAMEL_BADGER_PATH" env-default:"/var/lib/flamel"`

		SnapshotsKafkaBrokers []string `env:"FLAMEL_KAFKA_BROKERS"`
		SnapshotsKafkaTopic   string   `env:"FLAMEL_KAFKA_TOPIC" env-default:"flamegraph-snapshots"`
	}
)
