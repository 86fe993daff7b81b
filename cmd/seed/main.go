// cmd/seed/main.go
//
// Seeder – loads categories and cities into the directory database.
//
//	seed                         # built-in list, migrations first
//	seed --file conf/seed.yaml   # custom list
//	seed --dsn 'mysql://u:p@host/db' --migrate=false
//
// Rows are upserted by slug, so re-running is safe and updates names,
// states, and centroids in place.  Listings are never touched.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/database"
	"github.com/servicii-ro/directory/internal/logger"
	"github.com/servicii-ro/directory/internal/seed"
)

const (
	fileFlag = "file"
	dsnFlag  = "dsn"
)

var seedFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "YAML seed file (default: built-in category and city list)",
	},
	dsnFlag: &cobraflags.StringFlag{
		Name:  dsnFlag,
		Value: "",
		Usage: "MySQL DSN or mysql:// URL (default: $DATABASE_URL, then $SERVICII_DATABASE__DSN)",
	},
}

func newRootCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Upsert categories and cities",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), migrate)
		},
	}
	cobraflags.RegisterMap(cmd, seedFlags)
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply embedded migrations first")
	return cmd
}

// resolveDSN picks the first non-empty source.
func resolveDSN(flag string) (string, error) {
	for _, v := range []string{flag, os.Getenv("DATABASE_URL"), os.Getenv("SERVICII_DATABASE__DSN")} {
		if v != "" {
			return v, nil
		}
	}
	return "", errors.New("no database DSN: pass --dsn or set DATABASE_URL")
}

func run(ctx context.Context, migrate bool) error {
	log := zap.S()

	dsn, err := resolveDSN(seedFlags[dsnFlag].GetString())
	if err != nil {
		return err
	}

	var d seed.Data
	if path := seedFlags[fileFlag].GetString(); path != "" {
		d, err = seed.File(path)
	} else {
		d, err = seed.Default()
	}
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rep, err := seed.Apply(ctx, db, d)
	if err != nil {
		return err
	}
	log.Infow("seed applied", "categories", rep.Categories, "cities", rep.Cities)
	return nil
}

func main() {
	_ = godotenv.Load("conf/.env")
	boot := logger.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		boot.Errorw("seed failed", "err", err)
		os.Exit(1)
	}
}
