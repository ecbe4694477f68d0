// Command tenantctl registers a tenant and prints the generated API key.
// The key is shown once; only its digest is stored.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prevhub/processync/internal/auth"
	"github.com/prevhub/processync/internal/config"
	"github.com/prevhub/processync/internal/db"
	"github.com/prevhub/processync/internal/repository"
)

func main() {
	name := flag.String("name", "", "tenant (law firm) name")
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: tenantctl -name <tenant name>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	apiKey, err := generateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate api key: %v\n", err)
		os.Exit(1)
	}

	tenants := repository.NewTenantRepository(conn.Pool)
	tenant, err := tenants.Create(ctx, *name, auth.HashKey(apiKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create tenant: %v\n", err)
		os.Exit(1)
	}

	// Read back to confirm the row is visible before handing out the key.
	stored, err := tenants.GetByID(ctx, tenant.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to verify tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("tenant id: %s\n", stored.ID)
	fmt.Printf("name:      %s\n", stored.Name)
	fmt.Printf("api key:   %s\n", apiKey)
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
