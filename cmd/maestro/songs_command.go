package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"maestro/internal/gamectx"
	"maestro/internal/logging"
	"maestro/internal/songs"
)

func newSongsCommand(ctx *commandContext) *cobra.Command {
	var gameFlag string
	var modFlag string

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Show the registered songs from the last pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := cfg.Game.Target
			if gameFlag != "" {
				target = gameFlag
			}
			game, err := gamectx.Parse(target)
			if err != nil {
				return err
			}

			buildDir := game.BuildDir(cfg.Paths.BuildDir)
			out := cmd.OutOrStdout()

			version, ok := songs.ReadVersion(buildDir)
			if !ok {
				fmt.Fprintf(out, "No registered songs for %s; run `maestro register` first\n", game)
				return nil
			}
			if version != songs.SchemaVersion {
				fmt.Fprintf(out, "State for %s was written by an incompatible version; run `maestro register` to rebuild\n", game)
				return nil
			}

			registered := songs.Load(buildDir, logging.NewNop())
			if modFlag != "" {
				filtered := registered[:0]
				for _, s := range registered {
					if s.PackageID == modFlag {
						filtered = append(filtered, s)
					}
				}
				registered = filtered
			}
			if len(registered) == 0 {
				if modFlag != "" {
					fmt.Fprintf(out, "No registered songs for package %q in %s\n", modFlag, game)
					return nil
				}
				fmt.Fprintf(out, "No registered songs for %s\n", game)
				return nil
			}

			rows := make([][]string, 0, len(registered))
			for _, s := range registered {
				built := false
				if info, err := os.Stat(s.BuildPath); err == nil && !info.IsDir() {
					built = true
				}
				rows = append(rows, []string{
					strconv.FormatInt(s.AssignedID, 10),
					s.PackageID,
					s.Name,
					yesNo(built),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Slot", "Package", "Song", "Built"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			if modFlag != "" {
				fmt.Fprintf(out, "%d songs registered by %s for %s\n", len(registered), modFlag, game)
			} else {
				fmt.Fprintf(out, "%d songs registered for %s\n", len(registered), game)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gameFlag, "game", "", "Target game context (overrides config)")
	cmd.Flags().StringVar(&modFlag, "mod", "", "Only show songs contributed by this package")
	return cmd
}
