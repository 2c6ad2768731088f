package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/rpc"
	"github.com/spf13/cobra"
)

type commishFlags struct {
	server  string
	token   string
	user    string
	draft   string
	team    string
	player  string
	reason  string
	timeout time.Duration
}

// commishActions maps subcommand names to commissioner actions.
var commishActions = []struct {
	use    string
	short  string
	action engine.CommissionerActionType
}{
	{"pause", "Pause the draft clock", engine.ActionPauseDraft},
	{"resume", "Resume a paused draft", engine.ActionResumeDraft},
	{"undo", "Undo the most recent pick", engine.ActionUndoPick},
	{"force-pick", "Record a pick for a team out of turn order", engine.ActionForcePick},
	{"reset-timer", "Give the team on the clock a full timer", engine.ActionResetTimer},
	{"end", "End the draft now", engine.ActionEndDraft},
}

func newCommishCommand() *cobra.Command {
	f := &commishFlags{}
	cmd := &cobra.Command{
		Use:   "commish",
		Short: "Run commissioner commands against a draft server",
	}
	cmd.PersistentFlags().StringVar(&f.server, "server", "http://localhost:8080", "draft server base URL")
	cmd.PersistentFlags().StringVar(&f.token, "token", "", "access token")
	cmd.PersistentFlags().StringVar(&f.user, "user", "", "sign a token for this user id with JWT_SECRET instead of --token")
	cmd.PersistentFlags().StringVar(&f.draft, "draft", "", "draft id")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkPersistentFlagRequired("draft")

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, draftID, err := f.client()
			if err != nil {
				return err
			}
			ctx, cancel := contextWithTimeout(cmd, f.timeout)
			defer cancel()
			s, err := client.StartDraft(ctx, draftID)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Print the draft state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, draftID, err := f.client()
			if err != nil {
				return err
			}
			ctx, cancel := contextWithTimeout(cmd, f.timeout)
			defer cancel()
			s, err := client.GetDraftState(ctx, draftID)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	})

	for _, a := range commishActions {
		sub := &cobra.Command{
			Use:   a.use,
			Short: a.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				action, err := f.action(a.action)
				if err != nil {
					return err
				}
				client, draftID, err := f.client()
				if err != nil {
					return err
				}
				ctx, cancel := contextWithTimeout(cmd, f.timeout)
				defer cancel()
				res, err := client.ExecuteCommissionerAction(ctx, draftID, action)
				if err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		}
		switch a.action {
		case engine.ActionForcePick:
			sub.Flags().StringVar(&f.team, "team", "", "team id")
			sub.Flags().StringVar(&f.player, "player", "", "player id")
			_ = sub.MarkFlagRequired("team")
			_ = sub.MarkFlagRequired("player")
		case engine.ActionPauseDraft, engine.ActionEndDraft:
			sub.Flags().StringVar(&f.reason, "reason", "", "reason shown to the league")
		}
		cmd.AddCommand(sub)
	}
	return cmd
}

func (f *commishFlags) action(t engine.CommissionerActionType) (engine.CommissionerAction, error) {
	action := engine.CommissionerAction{Type: t, Reason: f.reason}
	if t != engine.ActionForcePick {
		return action, nil
	}
	var err error
	if action.TeamID, err = uuid.Parse(f.team); err != nil {
		return action, fmt.Errorf("invalid --team: %w", err)
	}
	if action.PlayerID, err = uuid.Parse(f.player); err != nil {
		return action, fmt.Errorf("invalid --player: %w", err)
	}
	return action, nil
}

func (f *commishFlags) client() (*rpc.Client, uuid.UUID, error) {
	draftID, err := uuid.Parse(f.draft)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid --draft: %w", err)
	}
	token := f.token
	if token == "" && f.user != "" {
		if token, err = signToken(f.user, time.Hour); err != nil {
			return nil, uuid.Nil, err
		}
	}
	if token == "" {
		return nil, uuid.Nil, fmt.Errorf("one of --token or --user is required")
	}
	return rpc.NewClient(http.DefaultClient, f.server, token), draftID, nil
}

func newTokenCommand() *cobra.Command {
	var (
		user string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := signToken(user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func signToken(user string, ttl time.Duration) (string, error) {
	userID, err := uuid.Parse(user)
	if err != nil {
		return "", fmt.Errorf("invalid user id: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	secret, err := cfg.secret()
	if err != nil {
		return "", err
	}
	return gateway.NewAuthenticator(secret, cfg.JWTIssuer, nil).Issue(userID, ttl)
}

func describe(err error) error {
	if code := rpc.DraftErrorCode(err); code != "" {
		return fmt.Errorf("%s: %w", code, err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
