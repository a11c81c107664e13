package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sadopc/classcal/internal/assignment"
	"github.com/sadopc/classcal/internal/config"
	"github.com/sadopc/classcal/internal/logger"
	"github.com/sadopc/classcal/internal/semester"
	"github.com/sadopc/classcal/internal/store"
	"github.com/sadopc/classcal/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CLASSCAL_CONFIG"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	st := store.New(cfg.DataFile, log)
	doc, err := st.Load()
	var perr *store.ParseError
	if err != nil && !errors.As(err, &perr) {
		return errors.Wrap(err, "load data")
	}

	reg := semester.NewRegistry(doc, st, log)
	gen := assignment.NewGenerator(cfg.OutputDir, log)

	app := tui.NewApp(reg, gen, cfg.ExportDir)
	if perr != nil {
		msg := "Data file was unreadable, started empty"
		if perr.BackupPath != "" {
			msg += " (original kept at " + perr.BackupPath + ")"
		}
		app = app.WithStatus(msg, true)
	}

	log.Info("starting", zap.String("data_file", st.Path()), zap.String("semester", reg.Current()))

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	// Save on close.
	if err := reg.Save(); err != nil {
		return errors.Wrap(err, "save on exit")
	}
	return nil
}
