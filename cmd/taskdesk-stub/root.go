package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iota-uz/taskdesk/internal/server"
	"github.com/iota-uz/taskdesk/internal/stubapi"
	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/pkg/configuration"
)

type serveOptions struct {
	Addr  string
	Token string
	OrgID string
	User  string
	Empty bool
}

func newRootCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:           "taskdesk-stub",
		Short:         "In-memory task/position backend for local work",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := configuration.Load([]string{".env", ".env.local"})
			if err != nil {
				return err
			}
			defer conf.Unload()
			logger := conf.Logger()

			addr := opts.Addr
			if addr == "" {
				addr = conf.StubAddr
			}
			token := opts.Token
			if token == "" {
				token = conf.API.Token
			}
			org := opts.OrgID
			if org == "" {
				org = conf.API.OrgID
			}
			user := opts.User
			if user == "" {
				user = stubapi.ManagerID.String()
			}

			b := stubapi.New(stubapi.Options{
				OrgID:  domain.ID(org),
				Token:  token,
				UserID: domain.ID(user),
			})
			if !opts.Empty {
				stubapi.Seed(b)
			}

			srv := server.Default(&server.DefaultOptions{
				Logger:        logger,
				Configuration: conf,
				Backend:       b,
			})
			logger.WithField("addr", addr).Info("stub backend listening")
			fmt.Fprintf(cmd.OutOrStdout(), "taskdesk-stub listening on http://%s (org %s)\n", addr, b.OrgID())
			return srv.Start(addr)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default STUB_ADDR)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Bearer token to require (default TASKDESK_TOKEN, empty disables auth)")
	cmd.Flags().StringVar(&opts.OrgID, "org", "", "Organization id (default TASKDESK_ORG_ID or 1)")
	cmd.Flags().StringVar(&opts.User, "user", "", "User signing review decisions (default the seeded manager)")
	cmd.Flags().BoolVar(&opts.Empty, "empty", false, "Start without seed data")
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
