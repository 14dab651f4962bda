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

// Command relaycache runs the ingester and transmitter HTTP servers for a
// single named cache instance selected from a TOML settings file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/cache"
	"github.com/cmafrelay/relaycache/internal/config"
	"github.com/cmafrelay/relaycache/internal/httpserver"
	"github.com/cmafrelay/relaycache/internal/ingest"
	"github.com/cmafrelay/relaycache/internal/sysnotify"
	"github.com/cmafrelay/relaycache/internal/transmit"
)

var (
	configPath string
	bufferSize int
)

func main() {
	root := &cobra.Command{
		Use:   "relaycache <kind:name>",
		Short: "Low-latency CMAF relay cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML settings file")
	root.Flags().IntVarP(&bufferSize, "buffer", "b", 0, "HTTP request buffer size override, in bytes (0 = default)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cacheName string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()

	setting, err := config.Load(configPath)
	if err != nil {
		sugar.Errorw("load config", "error", err)
		return err
	}

	if setting.Runtime.Threads > 0 {
		runtime.GOMAXPROCS(setting.Runtime.Threads)
	}

	resolved := setting.Cache.Resolve(cacheName)

	var (
		c   cache.Cache
		ing ingest.Ingester
	)

	switch resolved.Kind {
	case config.KindStatic:
		data, err := os.ReadFile(resolved.Static.FilePath)
		if err != nil {
			sugar.Errorw("read static cache file", "path", resolved.Static.FilePath, "error", err)
			return err
		}
		entries := cache.GenerateKeys(resolved.Static.Streams, resolved.Static.Tracks, resolved.Static.Segments, data)
		sharded := cache.NewShardedStaticCache(int(resolved.Static.Shards), entries)
		c = sharded
		ing = ingest.NewSimpleIngester()
	case config.KindList:
		listCache := cache.NewListCache(resolved.List.Copy)
		c = listCache
		ing = ingest.NewListIngester(listCache, sugar)
	case config.KindMap:
		mapCache := cache.NewMapCache(resolved.Map.Preallocate, sugar)
		c = mapCache
		ing = ingest.NewMapIngester(mapCache, sugar)
	default:
		err := fmt.Errorf("no such cache: %q", cacheName)
		sugar.Errorw("resolve cache", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sysnotify.Run(cancel, sugar)

	transmitter := transmit.NewHandler(c, sugar)
	ingesterHandler := http.HandlerFunc(ing.Ingest)

	return httpserver.Pair(ctx, sugar, setting.Ingester.Addr, ingesterHandler, setting.Transmitter.Addr, transmitter, bufferSize)
}
