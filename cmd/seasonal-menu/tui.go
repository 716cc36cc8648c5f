package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/notify"
	"seasonal-menu/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive menu generator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := app.NewRuntime(cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		flash := notify.NewFlash()
		model := tui.New(cmd.Context(), rt.NewApp(flash), flash)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	},
}
