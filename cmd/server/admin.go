// cmd/server/admin.go
package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/move-permit-backend/internal/database"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			database.Close(db)

			logrus.Info("Migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo lease and print tokens for its parties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			seed, err := database.SeedInitialData(db)
			if err != nil {
				return err
			}
			if seed == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "leases already present, nothing seeded")
				return nil
			}

			tenantToken, err := utils.GenerateJWT(seed.TenantID, string(models.ActorRoleTenant), cfg.JWT.AccessTokenTTL)
			if err != nil {
				return err
			}
			ownerToken, err := utils.GenerateJWT(seed.OwnerID, string(models.ActorRoleOwner), cfg.JWT.AccessTokenTTL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lease_id:     %s\n", seed.LeaseID)
			fmt.Fprintf(out, "property_id:  %s\n", seed.PropertyID)
			fmt.Fprintf(out, "tenant token: %s\n", tenantToken)
			fmt.Fprintf(out, "owner token:  %s\n", ownerToken)
			return nil
		},
	}
}

type tokenOptions struct {
	UserID string
	Role   string
	TTL    int
}

func newTokenCmd() *cobra.Command {
	var opts tokenOptions

	cmd := &cobra.Command{
		Use:   "token --user <uuid> --role <tenant|owner|admin>",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(opts.UserID)
			if err != nil {
				return fmt.Errorf("--user must be a uuid: %w", err)
			}
			if !models.ActorRole(opts.Role).IsValid() {
				return errors.New("--role must be tenant, owner or admin")
			}

			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			ttl := opts.TTL
			if ttl <= 0 {
				ttl = cfg.JWT.AccessTokenTTL
			}

			token, err := utils.GenerateJWT(userID, opts.Role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id to embed in the token")
	cmd.Flags().StringVar(&opts.Role, "role", "", "actor role")
	cmd.Flags().IntVar(&opts.TTL, "ttl", 0, "lifetime in hours (defaults to JWT_ACCESS_TOKEN_TTL)")
	return cmd
}
