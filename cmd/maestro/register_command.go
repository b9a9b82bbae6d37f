package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"maestro/internal/encoder"
	"maestro/internal/logging"
	"maestro/internal/registry"
	"maestro/internal/transcodecache"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var gameFlag string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register enabled mod music and build missing audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if gameFlag != "" {
				cfg.Game.Target = gameFlag
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			cache, err := transcodecache.Open(cfg, logger)
			if err != nil {
				return fmt.Errorf("open transcode cache: %w", err)
			}
			defer cache.Close()

			codec := encoder.NewCached(
				encoder.NewCLI(
					encoder.WithBinary(cfg.Encoder.Binary),
					encoder.WithTimeout(time.Duration(cfg.Encoder.TimeoutSeconds)*time.Second),
				),
				cache,
				logger,
			)

			engine, err := registry.Register(cmd.Context(), registry.Deps{
				Config: cfg,
				Codec:  codec,
				Cache:  cache,
				Logger: logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			registered := engine.Songs()
			fmt.Fprintf(out, "Registered %d songs for %s (build dir %s)\n",
				len(registered), engine.Game(), engine.BuildDir())
			if len(registered) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(registered))
			for _, s := range registered {
				rows = append(rows, []string{
					strconv.FormatInt(s.AssignedID, 10),
					s.PackageID,
					s.Name,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Slot", "Package", "Song"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&gameFlag, "game", "", "Target game context (overrides config)")
	return cmd
}
