package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/streaming-university/moqtail-sub001"
	"github.com/streaming-university/moqtail-sub001/transport/wtadapter"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	relayURL := envOr("RELAY_URL", "https://localhost:4443/moq")
	namespace := strings.Split(envOr("TRACK_NAMESPACE", "probe"), "/")
	trackName := envOr("TRACK_NAME", "video")
	insecure := os.Getenv("INSECURE_SKIP_VERIFY") != ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, log, relayURL, namespace, trackName, insecure); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("probe failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, relayURL string, namespace []string, trackName string, insecure bool) error {
	log.Info("dialing relay", "url", relayURL, "namespace", namespace, "track", trackName)

	conn, err := wtadapter.Dial(ctx, relayURL, &tls.Config{InsecureSkipVerify: insecure})
	if err != nil {
		return err
	}

	sess, err := moqtail.Dial(ctx, conn, moqtail.DialOptions{Log: log})
	if err != nil {
		return err
	}
	sess.SetOnSessionTerminated(func(cause error) {
		log.Info("session terminated", "cause", cause)
	})

	track, err := moqtail.NewFullTrackName(namespace, trackName)
	if err != nil {
		return err
	}

	sub, err := sess.Subscribe(ctx, moqtail.SubscribeOptions{
		Track:   track,
		Filter:  moqtail.FilterLatestObject,
		Forward: true,
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	log.Info("subscribed", "request_id", sub.RequestID(), "track_alias", sub.TrackAlias())

	for {
		obj, err := sub.Recv(ctx)
		if err != nil {
			return err
		}
		log.Info("object received",
			"group", obj.Location.Group,
			"object", obj.Location.Object,
			"status", obj.Status,
			"bytes", len(obj.Payload),
		)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
