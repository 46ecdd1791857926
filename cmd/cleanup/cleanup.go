package main

import (
	"errors"
	"os"
	"os/signal"
	"path"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/flamel/flamel/internal/logutil"
)

func cleanup(snapshotsPath string, timeLimit time.Time) error {
	dirEntries, err := os.ReadDir(snapshotsPath)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			if err := cleanup(path.Join(snapshotsPath, entry.Name()), timeLimit); err != nil {
				return err
			}
			continue
		}

		fileInfo, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}

		if timeLimit.After(fileInfo.ModTime()) {
			err = os.Remove(path.Join(snapshotsPath, entry.Name()))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func main() {
	snapshotsPath, ok := os.LookupEnv("FLAMEL_SNAPSHOTS_PATH")
	if !ok {
		snapshotsPath = "/var/lib/flamel"
	}

	retention, ok := os.LookupEnv("FLAMEL_RETENTION_DAYS")
	if !ok {
		retention = "90"
	}

	logutil.ConfigureLogger()

	err := sentry.Init(sentry.ClientOptions{})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	retentionDays, err := strconv.ParseInt(retention, 10, 64)
	if err != nil {
		log.Fatal().Err(err).Msg("can't parse retention days")
	}

	c := cron.New()
	_, err = c.AddFunc("@daily", func() {
		timeLimit := time.Now().Add(time.Hour * 24 * -1 * time.Duration(retentionDays))
		err := cleanup(snapshotsPath, timeLimit)
		if err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("error cleaning up snapshots")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't set up cron function")
	}

	exitSignal := make(chan os.Signal, 1)
	signal.Notify(exitSignal, os.Interrupt)

	go func() {
		<-exitSignal

		c.Stop()
	}()

	c.Run()
}
