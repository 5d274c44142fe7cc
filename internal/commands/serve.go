package commands

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"simacca/internal/auth"
	appLog "simacca/internal/log"
	"simacca/internal/scheduler"
	"simacca/internal/web"
)

func addServe(topLevel *cobra.Command, load func() (*app, error)) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background agenda refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := load()
			if err != nil {
				return err
			}
			// --listen overrides the config file.
			if listen != "" {
				a.cfg.Listen = listen
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			srv := web.NewServer(ctx, a.cfg, web.Deps{
				Store:    a.store,
				Writer:   a.client,
				Auth:     auth.New(a.cfg.Admin.Username, a.cfg.Admin.Password, a.cfg.JWTSecret, a.cfg.SessionTTL()),
				Profiles: auth.NewProfiles(a.cfg.Profile.Name, a.cfg.Profile.Title),
				Reports:  a.generator(ctx),
			})

			g.Go(func() error {
				return scheduler.New(a.cfg.RefreshCron, a.store).Run(ctx)
			})
			g.Go(func() error {
				err := srv.ListenAndServe(ctx)
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			})

			err = g.Wait()
			appLog.Info("simacca exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	topLevel.AddCommand(cmd)
}
