// Copyright © 2017 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Command recorder persists live CMAF uploads to disk for later replay.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/netutil"
	"github.com/cmafrelay/relaycache/internal/recorder"
	"github.com/cmafrelay/relaycache/internal/sysnotify"
)

// shutdownTimeout mirrors httpserver's grace period for the ingester and
// transmitter pair.
const shutdownTimeout = 30 * time.Second

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "recorder",
		Short: "Records CMAF uploads to disk for later replay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML settings file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()

	settings, err := recorder.LoadSettings(configPath)
	if err != nil {
		sugar.Errorw("load config", "error", err)
		return err
	}

	storage := recorder.NewFileStorage(settings.Storage.Path, sugar)
	registry := recorder.NewRegistry(storage, settings.Stream.InactiveTimeout(), sugar)
	uploader := recorder.NewUploader(storage, registry, sugar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sysnotify.Run(cancel, sugar)

	listener, err := netutil.Listen(settings.HTTP.Addr)
	if err != nil {
		sugar.Errorw("listen", "addr", settings.HTTP.Addr, "error", err)
		return err
	}

	server := &http.Server{Handler: uploader}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	sugar.Infow("recorder listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			sugar.Errorw("serve", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		sugar.Infow("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Infow("timed out waiting for connections to close")
			_ = server.Close()
		}
		<-errCh
		return nil
	}
}
