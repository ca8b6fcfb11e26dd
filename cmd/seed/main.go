package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mizanhq/mizan-backend/internal/app"
)

func main() {
	var file string
	var reset bool
	flag.StringVar(&file, "file", "seeds/regulatory.yaml", "YAML seed file to load")
	flag.BoolVar(&reset, "reset", false, "delete all regulatory rows before seeding")
	flag.Parse()

	if err := run(file, reset); err != nil {
		os.Exit(1)
	}
}

// run closes the app before returning so pending graph projections finish
// ahead of os.Exit.
func run(file string, reset bool) error {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: init app: %v\n", err)
		return err
	}
	defer application.Close()

	if err := application.SeedFromFile(context.Background(), file, reset); err != nil {
		application.Log.Error("seed failed", "file", file, "reset", reset, "error", err)
		return err
	}
	return nil
}
