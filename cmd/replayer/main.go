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

// Command replayer re-PUTs recorded CMAF streams against a target address,
// one schedule step at a time, reproducing the original producer's pacing.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cmafrelay/relaycache/internal/replayer"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "replayer",
		Short: "Replays recorded CMAF streams against a target address",
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

	settings, err := replayer.LoadSettings(configPath)
	if err != nil {
		sugar.Errorw("load config", "error", err)
		return err
	}

	storage := replayer.NewFileStorage(settings.Storage.Path)
	player := replayer.NewPlayer(storage, nil)

	for i, step := range settings.Schedule.Steps {
		if delay, ok := step.Delay(); ok && delay > 0 {
			sugar.Infow("waiting before step", "step", i, "stream", step.Stream, "delay", delay)
			time.Sleep(delay)
		}

		if err := runStep(sugar, storage, player, settings.Target.URL, step); err != nil {
			sugar.Errorw("schedule step failed", "step", i, "stream", step.Stream, "error", err)
			return err
		}
	}

	return nil
}

func runStep(log *zap.SugaredLogger, storage *replayer.FileStorage, player *replayer.Player, targetURL string, step replayer.ScheduleStep) error {
	if err := storage.ReadMetadata(step.Stream); err != nil {
		return err
	}
	meta, ok := storage.GetMetadata(step.Stream)
	if !ok {
		return fmt.Errorf("replayer: no metadata loaded for stream %q", step.Stream)
	}

	duration, loop := step.Duration()

	parallel := step.Parallel
	if parallel == 0 {
		parallel = 1
	}

	log.Infow("starting step", "stream", step.Stream, "representations", len(meta.Representations), "parallel", parallel, "loop", loop)

	group := new(errgroup.Group)
	for _, representation := range meta.Representations {
		representation := representation
		for p := uint32(0); p < parallel; p++ {
			group.Go(func() error {
				sent, err := player.Play(targetURL, representation, duration, loop)
				if err != nil {
					return err
				}
				log.Infow("representation replayed", "stream", step.Stream, "representation", representation.Idx, "bytes_sent", sent)
				return nil
			})
		}
	}

	return group.Wait()
}
