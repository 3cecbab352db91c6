// Command clipcasterd runs the clipcaster scheduler daemon. It is the
// service-manager entrypoint; interactive use goes through `clipcaster run`.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"clipcaster/internal/config"
	"clipcaster/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	level := flag.String("log-level", "", "Override logging.level")
	flag.Parse()

	if err := run(context.Background(), *configPath, *level); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, level string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: level})
}
