package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/galanthus/app/controllers"
	"github.com/km-arc/galanthus/app/database"
	"github.com/km-arc/galanthus/framework/app"
	"github.com/km-arc/galanthus/framework/db/tablegateway"
	"github.com/km-arc/galanthus/framework/di"
)

func main() {
	seed := flag.Bool("seed", false, "seed the cities table when it is empty")
	flag.Parse()

	// definition files reference ${ROOT_PATH}
	if os.Getenv("ROOT_PATH") == "" {
		if wd, err := os.Getwd(); err == nil {
			_ = os.Setenv("ROOT_PATH", wd)
		}
	}

	application, err := app.New(app.Options{
		ControllerNamespaces: []string{controllers.Namespace},
		Schema:               database.Schema,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := application.Log()

	controllers.Register(application.Container)
	if err := application.LoadDefinitions(); err != nil {
		log.Fatal("load definitions", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		gw, err := di.ResolveType[*tablegateway.TableGateway](application.Container)
		if err != nil {
			log.Fatal("resolve cities gateway", zap.Error(err))
		}
		n, err := database.Seed(ctx, gw)
		if err != nil {
			log.Fatal("seed", zap.Error(err))
		}
		log.Info("seeded", zap.String("table", gw.Table()), zap.Int("rows", n))
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
