// bridged es el daemon HTTP del consent bridge.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bridgehealth/consentbridge/internal/app"
	"github.com/bridgehealth/consentbridge/internal/config"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "ruta del YAML de configuración")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("run: %v", err)
	}
}
