// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nttcom/bgpls/internal/config"
	"github.com/nttcom/bgpls/internal/pkg/gobgp"
	"github.com/nttcom/bgpls/internal/pkg/table"
	"github.com/nttcom/bgpls/internal/pkg/version"
	"github.com/nttcom/bgpls/pkg/logger"
)

type Flags struct {
	ConfigFile string
	Version    bool
}

func main() {
	f := new(Flags)
	flag.StringVar(&f.ConfigFile, "f", "bgplsd.yaml", "Specify a configuration file")
	flag.BoolVar(&f.Version, "version", false, "Print the version and exit")
	flag.Parse()

	if f.Version {
		fmt.Println(version.String("bgplsd"))
		return
	}

	c, err := config.ReadConfigFile(f.ConfigFile)
	if err != nil {
		log.Panic(err)
	}
	if err := os.MkdirAll(c.Global.Log.Path, 0755); err != nil {
		log.Panic(err)
	}
	fp, err := os.OpenFile(filepath.Join(c.Global.Log.Path, c.Global.Log.Name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Panic(err)
	}
	defer fp.Close()

	logger := logger.LogInit(fp, c.Global.Log.Debug)
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	if !c.Global.Ted.Enable {
		logger.Info("TED is disabled, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &gobgp.GobgpOptions{
		GobgpAddr: c.Global.Gobgp.Address,
		GobgpPort: c.Global.Gobgp.Port,
	}
	logger.Info("start TED sync",
		zap.String("version", version.Version()),
		zap.String("gobgp", o.GobgpAddr+":"+o.GobgpPort),
		zap.Int("interval", c.Global.Ted.Interval))
	runTedSync(ctx, o, time.Duration(c.Global.Ted.Interval)*time.Second, logger)
}

// runTedSync rebuilds the TED from gobgpd every interval until ctx is done.
func runTedSync(ctx context.Context, o *gobgp.GobgpOptions, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tedID := 1; ; tedID++ {
		ted, err := syncTed(ctx, o, tedID)
		if err != nil {
			logger.Error("failed to sync TED", zap.Error(err))
		} else {
			nodes, links, prefixes := ted.Counts()
			logger.Info("TED synced",
				zap.Int("id", ted.ID),
				zap.Int("nodes", nodes),
				zap.Int("links", links),
				zap.Int("prefixes", prefixes))
		}

		select {
		case <-ctx.Done():
			logger.Info("stop TED sync")
			return
		case <-ticker.C:
		}
	}
}

func syncTed(ctx context.Context, o *gobgp.GobgpOptions, tedID int) (*table.LsTed, error) {
	tedElems, err := gobgp.GetBgplsNlris(ctx, o.GobgpAddr, o.GobgpPort)
	if err != nil {
		return nil, err
	}
	ted := table.NewLsTed()
	ted.ID = tedID
	ted.Update(tedElems)
	return ted, nil
}
