package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/form"
	"seasonal-menu/internal/lifecycle"
	"seasonal-menu/internal/menu"
	"seasonal-menu/internal/notify"
	"seasonal-menu/internal/present"
)

var (
	genLocation     string
	genSeason       string
	genPlaceType    string
	genRestrictions []string
	genPreferences  []string
	genOutput       string
)

// errIncompleteRequest is returned when location, season or place type is
// missing.
var errIncompleteRequest = errors.New("location, season and place type are required")

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a seasonal menu",
	Example: `  seasonal-menu generate --location California --season fall --place-type restaurant \
    --preference Italian --restriction Vegetarian`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genLocation, "location", "l", "", "City, region or country")
	generateCmd.Flags().StringVarP(&genSeason, "season", "s", "", "Spring, Summer, Fall or Winter")
	generateCmd.Flags().StringVarP(&genPlaceType, "place-type", "p", "", "Restaurant, Cafe, Hotel, Catering, Home Kitchen or Food Truck")
	generateCmd.Flags().StringSliceVar(&genRestrictions, "restriction", nil, "Dietary restriction (repeatable)")
	generateCmd.Flags().StringSliceVar(&genPreferences, "preference", nil, "Cuisine preference (repeatable)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "pretty", "Output format: pretty, markdown or json")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	rt, err := app.NewRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := rt.NewApp(notify.Nop{})
	if err := fillForm(a.Form(), genLocation, genSeason, genPlaceType, genRestrictions, genPreferences); err != nil {
		return err
	}

	success, err := generateMenu(ctx, a)
	if err != nil {
		return err
	}
	return writeMenu(cmd.OutOrStdout(), success, genOutput)
}

// fillForm normalizes the flag values and enters them into f.
func fillForm(f *form.Controller, location, season, placeType string, restrictions, preferences []string) error {
	if season != "" {
		s, err := menu.ParseSeason(season)
		if err != nil {
			return err
		}
		season = string(s)
	}
	if placeType != "" {
		p, err := menu.ParsePlaceType(placeType)
		if err != nil {
			return err
		}
		placeType = string(p)
	}

	for field, value := range map[form.Field]string{
		form.FieldLocation:  location,
		form.FieldSeason:    season,
		form.FieldPlaceType: placeType,
	} {
		if err := f.UpdateField(field, value); err != nil {
			return err
		}
	}
	for _, r := range restrictions {
		f.AddRestriction(r)
	}
	for _, p := range preferences {
		f.AddPreference(p)
	}
	return nil
}

// generateMenu submits the form and waits for the outcome.
func generateMenu(ctx context.Context, a *app.App) (lifecycle.Success, error) {
	call, ok, err := a.Generate()
	if err != nil {
		return lifecycle.Success{}, err
	}
	if !ok {
		return lifecycle.Success{}, errIncompleteRequest
	}

	switch st := a.Execute(ctx, call).(type) {
	case lifecycle.Success:
		return st, nil
	case lifecycle.Failed:
		return lifecycle.Success{}, fmt.Errorf("%s: %s", present.TitleFailed, st.Message)
	default:
		return lifecycle.Success{}, fmt.Errorf("unexpected state %s", st.Phase())
	}
}

func writeMenu(w io.Writer, st lifecycle.Success, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st.Response)
	case "markdown":
		_, err := io.WriteString(w, present.Markdown(present.BuildMenu(st.Request, st.Response)))
		return err
	case "pretty", "":
		return renderMarkdown(w, present.Markdown(present.BuildMenu(st.Request, st.Response)))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderMarkdown(w io.Writer, md string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
