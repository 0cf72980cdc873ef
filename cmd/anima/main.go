// Package main provides the CLI entrypoint for anima.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/anima/internal/catalog"
	"github.com/verte-zerg/anima/internal/config"
	"github.com/verte-zerg/anima/internal/logging"
	"github.com/verte-zerg/anima/internal/model"
	"github.com/verte-zerg/anima/internal/pet"
	"github.com/verte-zerg/anima/internal/settings"
	"github.com/verte-zerg/anima/internal/sprite"
	"github.com/verte-zerg/anima/internal/store"
	"github.com/verte-zerg/anima/internal/tray"
	"github.com/verte-zerg/anima/internal/ui"
)

const (
	screenWidthBackup  = 80
	screenHeightBackup = 24
)

var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "anima",
		Short:         "Animated GIF pets for your terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPets,
	}
}

func runPets(_ *cobra.Command, _ []string) error {
	configPath := config.DefaultConfigPath()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := fileCfg.Resolve()
	if err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	l, logFile, err := logging.New(config.DefaultLogPath())
	if err != nil {
		l.WithError(err).Warnf("Logging to stderr.")
	}
	defer func() {
		// Best-effort close of the log file.
		_ = logFile.Close()
	}()

	if !stdoutIsTerminal() {
		return fmt.Errorf("%w: stdout is not a terminal", model.ErrNoSurface)
	}
	if written, err := config.WriteTemplate(configPath); err != nil {
		l.WithError(err).Warnf("Unable to write config template.")
	} else if written {
		l.Infof("Wrote config template to [%s].", configPath)
	}
	screen := stageSize()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			l.WithError(cerr).Warnf("Failed to close db.")
		}
	}()

	ctx := context.Background()
	var builtins fs.FS = catalog.Bundled()
	if cfg.BuiltinDir != "" {
		builtins = os.DirFS(cfg.BuiltinDir)
	}
	cat, err := catalog.New(ctx, catalog.Options{
		Builtins:  builtins,
		ImportDir: cfg.ImportDir,
		Store:     st,
		Logger:    l,
	})
	if err != nil {
		return fmt.Errorf("failed to load characters: %w", err)
	}

	petSize := sprite.CellSize(cfg.PetWidth, cfg.PetWidth, cfg.PetWidth)
	defaults := model.Settings{
		SelectedCharacter: cat.Default().ID,
		Opacity:           cfg.DefaultOpacity,
		Position:          model.CenterPosition(petSize, screen),
	}
	settingsStore := settings.New(config.DefaultSettingsPath(), defaults, l)
	current := settingsStore.Load()

	selected, err := cat.Get(ctx, current.SelectedCharacter)
	if err != nil {
		l.WithError(err).Warnf("Selected character [%s] is unavailable, using [%s].", current.SelectedCharacter, cat.Default().ID)
		selected = cat.Default()
	}

	stage := ui.NewStage(cat, cfg.PetWidth)
	pets := pet.New(pet.Options{
		Settings:      current,
		Saver:         settingsStore,
		Factory:       stage,
		Logger:        l,
		Screen:        screen,
		IdleCharacter: idleCharacter(ctx, cat, cfg.IdleCharacter, l),
		IdleTimeout:   cfg.IdleTimeout,
	})
	if _, err := pets.Start(selected, cat.Default()); err != nil {
		return err
	}

	controller := tray.New(pets, l)
	m := ui.NewModel(ui.Options{
		Pets:    pets,
		Tray:    controller,
		Stage:   stage,
		Catalog: cat,
		Logger:  l,
	})
	logging.Silence(l)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := program.Run()
	if !controller.Done() {
		// Quit logs write failures itself.
		_ = controller.Quit()
	}
	if runErr != nil {
		return fmt.Errorf("failed to run UI: %w", runErr)
	}
	return nil
}

func idleCharacter(ctx context.Context, cat *catalog.Catalog, id string, l logrus.FieldLogger) *model.Character {
	if id == "" {
		return nil
	}
	c, err := cat.Get(ctx, id)
	if err != nil {
		l.WithError(err).Warnf("Idle character [%s] is unavailable, idle animation disabled.", id)
		return nil
	}
	return &c
}

// stageSize returns the terminal size minus the tray bar.
func stageSize() model.Size {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 1 {
		width, height = screenWidthBackup, screenHeightBackup
	}
	return model.Size{Width: width, Height: height - 1}
}
