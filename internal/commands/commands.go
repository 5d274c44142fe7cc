// Package commands is the simacca command tree.
package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"simacca/internal/agenda"
	"simacca/internal/config"
	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/remote"
	"simacca/internal/report"
)

const defaultConfigPath = "/etc/simacca/config.yaml"

// New builds the root command.
func New() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "simacca",
		Short: "Agenda sync, listing and daily reports for the district office",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")

	load := func() (*app, error) { return loadApp(configPath) }
	addServe(cmd, load)
	addSync(cmd, load)
	addToday(cmd, load)
	addReport(cmd, load)
	return cmd
}

// app holds the components every command shares.
type app struct {
	cfg    *config.Config
	civil  locale.Civil
	client *remote.Client
	store  *agenda.Store
}

func loadApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return nil, err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	civil := cfg.Civil()
	client := remote.NewClient(cfg.APIURL, 15*time.Second)
	store := agenda.NewStore(client, agenda.NewNormalizer(civil))

	appLog.Info("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", civil.Loc.String(),
		"api_url", remote.RedactURL(cfg.APIURL),
		"refresh", cfg.RefreshCron,
		"referral_targets", len(cfg.ReferralTargets),
	)
	return &app{cfg: cfg, civil: civil, client: client, store: store}, nil
}

// generator wires the PDF report pipeline from config. Letterhead images are
// loaded once here; failures fall back to placeholders.
func (a *app) generator(ctx context.Context) *report.Generator {
	rc := a.cfg.Report
	return &report.Generator{
		Renderer: &report.ChromeRenderer{},
		Civil:    a.civil,
		Options: report.Options{
			Title:         rc.Title,
			OfficialLabel: rc.OfficialLabel,
			Signatory:     report.Signatory(rc.Signatory),
			Letterhead:    report.LoadLetterhead(ctx, rc.LetterheadLeft, rc.LetterheadRight),
		},
	}
}
