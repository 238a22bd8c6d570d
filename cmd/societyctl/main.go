package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/campuside/society-client/alerts"
	"github.com/campuside/society-client/client"
	"github.com/campuside/society-client/engage"
	"github.com/campuside/society-client/membership"
	"github.com/campuside/society-client/model"
	"github.com/campuside/society-client/session"
	"github.com/campuside/society-client/stream"
	"github.com/campuside/society-client/utils/dotenv"
)

const defaultAPIBase = "http://localhost:8080/api"

// stderrSink prints toast-style alerts the way the web client would show
// them, one line per alert.
type stderrSink struct{}

func (stderrSink) Show(a alerts.Alert) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", strings.ToUpper(string(a.Level)), a.Message)
}

type app struct {
	api        *client.Client
	session    *session.Store
	membership *membership.Cache
}

func newApp() (*app, error) {
	base := os.Getenv("SOCIETY_API_BASE")
	if len(base) == 0 {
		base = defaultAPIBase
	}
	tokenPath := os.Getenv("SOCIETY_TOKEN_FILE")
	if len(tokenPath) == 0 {
		var err error
		tokenPath, err = client.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
	}

	dispatcher := alerts.NewDispatcher(stderrSink{}, alerts.DefaultMinInterval)
	api := client.New(base, client.NewTokenStore(tokenPath), dispatcher)
	return &app{
		api:        api,
		session:    session.NewStore(api),
		membership: membership.NewCache(api),
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dotenv.LoadDotEnvs(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not load .env:", err)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "societyctl",
		Short:         "Command line client for the society platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newSocietiesCmd(a),
		newMembershipCmd(a),
		newJoinCmd(a),
		newEventsCmd(a),
		newNotificationsCmd(a),
		newLikeCmd(a),
		newCommentCmd(a),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	var remember bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Login(cmd.Context(), email, password, remember); err != nil {
				return err
			}
			user := a.session.User()
			fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
			if remember {
				fmt.Println("token stored durably; future invocations stay signed in")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "persist the token across invocations")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and all stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Init(cmd.Context())
			if !a.session.IsAuthenticated() {
				return fmt.Errorf("not logged in")
			}
			user := a.session.User()
			fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.Id)
			return nil
		},
	}
}

func newSocietiesCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "societies",
		Short: "List societies",
		RunE: func(cmd *cobra.Command, args []string) error {
			societies, err := a.api.ListSocieties(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, s := range societies {
				fmt.Printf("%s\t%s\t%d members\n", s.Id, s.Name, s.MembersCount)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum societies to list")
	return cmd
}

func newMembershipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "membership <society-id>",
		Short: "Show your membership in a society",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.membership.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pending, _ := a.membership.JoinPending(cmd.Context(), args[0])
			fmt.Printf("member=%v admin=%v role=%s pending_request=%v\n", m.IsMember, m.IsAdmin, m.Role, pending)
			return nil
		},
	}
}

func newJoinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "join <society-id>",
		Short: "Request to join a society",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.membership.RequestJoin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("join request submitted; approval is up to the society admins")
			return nil
		},
	}
}

func newEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events <society-id>",
		Short: "List a society's events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.api.ListEvents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Printf("%s\t%s\t%s\n", e.Id, e.StartsAt.Format(time.RFC3339), e.Title)
			}
			return nil
		},
	}
}

func newNotificationsCmd(a *app) *cobra.Command {
	var watch bool
	var markAllRead bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show notifications, optionally following the live stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			printOne := func(n model.Notification) {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Printf("%s %s\t[%s]\t%s: %s\n", marker, n.Id, n.TypeLabel(), n.Title, n.Message)
			}

			opts := []stream.Option{}
			if watch {
				opts = append(opts, stream.WithPushHandler(printOne))
			}
			sc := stream.New(a.api, opts...)
			defer sc.Close()

			if !watch {
				list, err := a.api.ListNotifications(ctx)
				if err != nil {
					return err
				}
				for _, n := range list {
					printOne(n)
				}
				if markAllRead {
					return a.api.MarkAllNotificationsRead(ctx)
				}
				return nil
			}

			sc.Start(ctx)
			for _, n := range sc.Notifications() {
				printOne(n)
			}
			fmt.Fprintln(os.Stderr, "watching for notifications, ctrl-c to stop")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep the stream open and print notifications as they arrive")
	cmd.Flags().BoolVar(&markAllRead, "mark-all-read", false, "mark every notification read")
	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	var unlike bool
	cmd := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := engage.NewManager(a.api)
			post := &model.Post{Id: args[0], IsLiked: unlike}
			if err := mgr.ToggleLike(cmd.Context(), post); err != nil {
				return err
			}
			if post.IsLiked {
				fmt.Println("liked")
			} else {
				fmt.Println("unliked")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&unlike, "undo", false, "remove your like instead")
	return cmd
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Init(cmd.Context())
			author := "you"
			if user := a.session.User(); user != nil {
				author = user.Name
			}
			mgr := engage.NewManager(a.api)
			post := &model.Post{Id: args[0]}
			if _, err := mgr.AddComment(cmd.Context(), post, args[1], author); err != nil {
				return err
			}
			fmt.Println("comment posted")
			return nil
		},
	}
}
