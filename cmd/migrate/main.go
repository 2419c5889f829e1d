package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"bazarly.org/internal/migrate"
	"bazarly.org/migrations"
)

func main() {
	log.SetFlags(0)
	var (
		dsn      = flag.String("dsn", os.Getenv("BAZARLY_PG_DSN"), "PostgreSQL DSN")
		dir      = flag.String("migrations", "", "Path to SQL migrations (default: embedded)")
		seedsDir = flag.String("seeds", "", "Path to SQL seed files")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or BAZARLY_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var (
		fsys    fs.FS = migrations.FS
		baseDir       = migrations.Dir
	)
	if *dir != "" {
		fsys = os.DirFS(*dir)
		baseDir = "."
	}
	var opts []migrate.Option
	if *seedsDir != "" {
		if *dir == "" {
			log.Fatal("-seeds requires -migrations (both are read from the same root)")
		}
		opts = append(opts, migrate.WithSeedsDir(*seedsDir))
	}
	mgr := migrate.NewManager(db, fsys, baseDir, opts...)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
