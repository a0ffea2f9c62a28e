// cmd/seed/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

func main() {
	clearData := flag.Bool("clear", false, "delete catalog, cart and order rows before seeding")
	drop := flag.Bool("drop", false, "drop every table and recreate the schema")
	info := flag.Bool("info", false, "print row counts and exit")
	hash := flag.String("hash", "", "print the bcrypt hash of a password and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *hash != "" {
		hashed, err := auth.NewPasswordManager(cfg).HashPassword(*hash)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migration := postgres.NewMigration(db.GetDB())

	if *info {
		printCounts(migration)
		return
	}

	if *drop {
		if cfg.IsProduction() {
			log.Fatal("Refusing to drop tables in production")
		}
		if err := migration.DropAllTables(); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	if *clearData {
		if err := migration.ClearData(); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	if err := migration.SeedInitialData(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	printCounts(migration)
}

func printCounts(migration *postgres.Migration) {
	counts, err := migration.TableCounts()
	if err != nil {
		log.Fatalf("Failed to read table counts: %v", err)
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		fmt.Printf("%-24s %d\n", table, counts[table])
	}
}
