// Package main is the entry point for the signalry demo.
package main

import (
	"context"
	"os"

	"signalry-go/core/broadcast"
	"signalry-go/core/scope"
	"signalry-go/domain/transponder"
	"signalry-go/infrastructure/logging"
	"signalry-go/resources"
)

func main() {
	// Initialize logging (dev: console only, prod: rotating file)
	logger, closeLog, err := logging.Setup(nil)
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting signalry")

	ctx := logging.With(context.Background(), logger)

	dispatcher := broadcast.NewDispatcher(logger)
	registry := transponder.New(dispatcher, transponder.WithLogger(logger))

	// Load the embedded event catalog
	loader := transponder.NewLoader(registry)
	if err := loader.LoadFromFS(resources.EventFiles); err != nil {
		logger.Error("Failed to load event manifests", "error", err)
		os.Exit(1)
	}

	session := registry.Transponder("session")
	capture := registry.Transponder("capture")

	// Root-scope subscription: lives until removed explicitly.
	sessionCtx := logging.WithAttrs(ctx, "namespace", "session")
	removeStarted := session.On("started")(nil, func(args ...any) {
		logging.From(sessionCtx).Info("session started", "args", args)
	})
	defer removeStarted()

	// Scope-bound subscription: torn down when the scope is destroyed.
	tab := scope.New()
	captureCtx := logging.WithAttrs(ctx, "namespace", "capture")
	capture.On("frame")(tab, func(args ...any) {
		logging.From(captureCtx).Info("frame captured", "args", args)
	})

	session.Raise("started")("acct-1")
	capture.Raise("frame")(1, "png")

	logger.Info("live transponders", "names", registry.ListTransponders())
	logger.Info("session transmissions", "events", registry.ListTransmissions("session"))

	tab.Destroy()
	capture.Raise("frame")(2, "png") // nobody listening anymore

	logger.Info("live transponders after teardown", "names", registry.ListTransponders())
}
