package main

import (
	"context"
	"infrachat/app/client/docindex"
	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/server"
	"infrachat/app/service/chat"
	"infrachat/app/service/docsearch"
	"infrachat/app/service/logquery"
	"infrachat/app/service/sqlquery"
	"infrachat/app/service/vmexec"
	"infrachat/app/util/mylog"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.NewClient)
	do.Provide(di, docindex.NewClient)
	do.Provide(di, docsearch.New)
	do.Provide(di, sqlquery.New)
	do.Provide(di, logquery.New)
	do.Provide(di, vmexec.New)
	do.Provide(di, chat.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go func() {
		if err := do.MustInvoke[*server.Service](di).Run(appCtx); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-appCtx.Done()
}
