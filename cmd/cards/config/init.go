package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/cliui"
	"github.com/papercomputeco/cards/pkg/config"
	"github.com/papercomputeco/cards/pkg/dotdir"
)

const initLongDesc string = `Create a .cards/config.toml in the current directory.

Without --preset the file holds the defaults: an in-memory vector store and
ollama embeddings. Presets:
  local    sqlite-vec store in cards.db
  qdrant   qdrant on localhost:6334
  chroma   chroma on http://localhost:8000
  openai   qdrant with OpenAI embeddings

An existing config.toml is left untouched unless --force is given.`

func newInitCmd() *cobra.Command {
	var (
		preset string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file",
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runInit(cmd.OutOrStdout(), configDir, preset, force)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Preset to start from (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func runInit(w io.Writer, configDir, preset string, force bool) error {
	cfg := config.NewDefaultConfig()
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	dir := configDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		if dir, err = dotdir.NewManager().Init(cwd); err != nil {
			return err
		}
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Wrote %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(filepath.Clean(target)),
	)
	return nil
}
