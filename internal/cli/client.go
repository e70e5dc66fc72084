package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizroom/internal/client/api"
	"quizroom/internal/client/session"
	"quizroom/internal/config"
)

// clientEnv is what every client command starts from.
type clientEnv struct {
	cfg     config.Config
	session *session.Store
	api     *api.Client
}

func newClientEnv(configPath string) (*clientEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(session.NewFileKV(cfg.Client.SessionFile))
	if _, err := store.Load(); err != nil {
		return nil, err
	}
	client := api.New(cfg.Client.APIURL,
		api.WithTokenSource(store),
		api.WithUnauthorizedHandler(func() {
			if err := store.Clear(); err != nil {
				log.Printf("clear session: %v", err)
			}
		}),
	)
	return &clientEnv{cfg: cfg, session: store, api: client}, nil
}

type credentials struct {
	username string
	password string
	register bool
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.username, "username", "u", "", "username to sign in with")
	cmd.Flags().StringVarP(&c.password, "password", "p", "", "password to sign in with")
	cmd.Flags().BoolVar(&c.register, "register", false, "create the account first")
}

// ensureSignedIn signs in with creds when given, otherwise requires a stored session.
func (e *clientEnv) ensureSignedIn(ctx context.Context, creds credentials) error {
	if creds.username != "" {
		var (
			res api.Auth
			err error
		)
		if creds.register {
			res, err = e.api.Register(ctx, creds.username, creds.password, creds.password)
		} else {
			res, err = e.api.Login(ctx, creds.username, creds.password)
		}
		if err != nil {
			return errors.New(api.UserMessage(err))
		}
		if err := e.session.SetUser(res.User); err != nil {
			return err
		}
		return e.session.SetToken(res.Token)
	}
	if !e.session.Current().Authenticated() {
		return errors.New("not signed in: run `quizroom login` or pass --username/--password")
	}
	return nil
}

func NewLoginCmd(configPath *string) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in (or register with --register) and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.username == "" || creds.password == "" {
				return errors.New("--username and --password are required")
			}
			env, err := newClientEnv(*configPath)
			if err != nil {
				return err
			}
			if err := env.ensureSignedIn(cmd.Context(), creds); err != nil {
				return err
			}
			st := env.session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (id %d)\n", st.Username, st.UserID)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func NewLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newClientEnv(*configPath)
			if err != nil {
				return err
			}
			if err := env.session.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func NewQuizzesCmd(configPath *string) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List the quizzes you created",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newClientEnv(*configPath)
			if err != nil {
				return err
			}
			if err := env.ensureSignedIn(cmd.Context(), creds); err != nil {
				return err
			}
			list, err := env.api.UserQuizzes(cmd.Context(), env.session.Current().UserID)
			if err != nil {
				return errors.New(api.UserMessage(err))
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "no quizzes yet")
				return nil
			}
			for _, q := range list {
				fmt.Fprintf(out, "%5d  %-30s %2d questions  %s\n", q.ID, q.Title, q.QuestionCount, q.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}
