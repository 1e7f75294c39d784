package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
)

// operator is the actor for catalog writes made from the command line.
var operator = domain.Actor{Subject: "utmctl", Role: domain.RoleEditor}

// Export is the document written by the export command.
type Export struct {
	Projects []domain.Project `json:"projects"`
	Members  []domain.Member  `json:"members"`
	Links    []domain.Link    `json:"links"`
}

func openRepo() (*sqlite.SQLiteRepository, *config.Config, error) {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	return repo, cfg, nil
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump projects, members and links as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			return doExport(cmd.Context(), repo, cmd.OutOrStdout())
		},
	}
}

func doExport(ctx context.Context, repo *sqlite.SQLiteRepository, w io.Writer) error {
	var (
		out Export
		err error
	)
	if out.Projects, err = repo.ListProjects(ctx); err != nil {
		return err
	}
	if out.Members, err = repo.ListMembers(ctx); err != nil {
		return err
	}
	if out.Links, err = repo.Dump(ctx); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func memberCmd() *cobra.Command {
	member := &cobra.Command{
		Use:   "member",
		Short: "Member commands",
	}

	var editor bool
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a member, or report the existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := services.NewMemberService(repo, authz.MustPolicy())
			m, created, err := svc.CreateMember(cmd.Context(), operator, args[0], editor)
			if err != nil {
				return err
			}

			verb := "exists"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "member %d %s (%s, %s)\n", m.ID, m.Name, m.Role(), verb)
			return nil
		},
	}
	add.Flags().BoolVar(&editor, "editor", false, "grant catalog write access")

	member.AddCommand(add)
	return member
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	command := &cobra.Command{
		Use:   "token MEMBER_ID",
		Short: "Mint an API token for a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid member id %q", args[0])
			}

			repo, cfg, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			m, err := repo.GetMember(cmd.Context(), id)
			if err != nil {
				return err
			}

			actor := domain.Actor{MemberID: m.ID, Subject: m.Name, Role: m.Role()}
			token, _, err := handler.IssueToken([]byte(cfg.JWTSecret), actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	command.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return command
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print global click statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := services.NewStatsService(repo).GlobalStats(cmd.Context())
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(stats)
		},
	}
}
