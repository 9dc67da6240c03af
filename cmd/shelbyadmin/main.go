package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"shelbyadmin/internal/apiclient"
	"shelbyadmin/internal/app"
	"shelbyadmin/internal/config"
	"shelbyadmin/internal/localstore"
	"shelbyadmin/internal/util"
	"shelbyadmin/internal/verifywatch"
	"shelbyadmin/pkg/domain"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	pollInterval, err := config.ParsePollInterval(cfg.PollInterval)
	if err != nil {
		log.Fatalf("failed to parse poll interval: %v", err)
	}
	redirectDelay, err := config.ParseRedirectDelay(cfg.RedirectDelay)
	if err != nil {
		log.Fatalf("failed to parse redirect delay: %v", err)
	}

	util.InitLogger(cfg.LogLevel)

	client := apiclient.NewClient(cfg.APIBaseURL)
	if token := os.Getenv("SHELBY_SESSION_TOKEN"); token != "" {
		client.SetSessionToken(token)
	}
	pending := localstore.NewPendingAuthStore(cfg.RedisAddr, cfg.RedisPassword)
	broadcast := localstore.NewVerifiedBroadcast(cfg.RedisAddr, cfg.RedisPassword)
	watcher := verifywatch.New(client.VerificationStatus, broadcast, pollInterval)

	ctx := context.Background()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "login":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		runLogin(ctx, client, pending, watcher, redirectDelay, args[1], args[2])
	case "topics":
		runTopics(ctx, client, args[1:])
	case "decisions":
		runDecisions(ctx, client, args[1:])
	case "council":
		runCouncil(ctx, client, args[1:])
	case "inbox":
		runInbox(ctx, client, broadcast, args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: shelbyadmin [-config path] <command>

commands:
  login <identifier> <password>
  topics list [query] | add <description> | rm <id>
  decisions list [query]
  council list
  inbox list | approve <email> | reject <email> | cancel <email>`)
}

func runLogin(ctx context.Context, client *apiclient.Client, pending *localstore.PendingAuthStore, watcher *verifywatch.Watcher, redirectDelay time.Duration, identifier, password string) {
	done := make(chan struct{})
	login := app.NewLoginController(client, pending, watcher, redirectDelay, func() {
		close(done)
	})
	defer login.Close()

	login.Login(ctx, identifier, password)
	state := login.State()
	if state.Error != "" {
		log.Fatalf("login: %s", state.Error)
	}
	if state.Waiting {
		fmt.Println(state.Info)
	}
	for state.Waiting {
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		state = login.State()
		if state.Error != "" {
			log.Fatalf("login: %s", state.Error)
		}
	}
	if !state.Authenticated {
		fmt.Println(state.Info)
		return
	}
	<-done
	fmt.Printf("logged in as %s\n", state.Username)
	fmt.Printf("SHELBY_SESSION_TOKEN=%s\n", client.SessionToken())
}

func runTopics(ctx context.Context, client *apiclient.Client, args []string) {
	ctl := app.NewTopicController(client)
	defer ctl.Close()
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		if len(args) > 1 {
			ctl.SetFilterInput("query", args[1])
			ctl.ApplyFilters()
		}
		ctl.Load(ctx)
		mustClean(ctl.State().Error)
		for _, t := range ctl.State().Visible {
			fmt.Printf("%4d  %s\n", t.ID, t.Description)
		}
	case "add":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		ctl.StartCreate()
		ctl.UpdateDraft(func(t *domain.Topic) { t.Description = args[1] })
		ctl.Save(ctx)
		mustClean(ctl.State().Error)
		fmt.Println(ctl.State().Success)
	case "rm":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid topic id %q", args[1])
		}
		ctl.Delete(ctx, id, confirm("delete topic "+args[1]))
		mustClean(ctl.State().Error)
		if msg := ctl.State().Success; msg != "" {
			fmt.Println(msg)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func runDecisions(ctx context.Context, client *apiclient.Client, args []string) {
	screen := app.NewDecisionScreen(client)
	defer screen.Close()
	if len(args) > 1 {
		screen.SetFilterInput("query", args[1])
		screen.ApplyFilters()
	}
	screen.LoadReferences(ctx)
	screen.Load(ctx)
	mustClean(screen.State().Error)
	for _, d := range screen.State().Visible {
		fmt.Printf("%4d  topic=%d  %s to %s  %s\n",
			d.ID, d.TopicID, app.DisplayDate(d.StartDate), app.DisplayDate(d.EndDate), d.Description)
	}
}

func runCouncil(ctx context.Context, client *apiclient.Client, args []string) {
	screen := app.NewCouncilScreen(client)
	defer screen.Close()
	screen.LoadReferences(ctx)
	screen.Load(ctx)
	mustClean(screen.State().Error)
	for _, e := range screen.State().Visible {
		fmt.Printf("%4d  dni=%s  decision=%d  %s\n", e.ID, e.PartnerDNI, e.DecisionID, e.Notes)
	}
}

func runInbox(ctx context.Context, client *apiclient.Client, broadcast *localstore.VerifiedBroadcast, args []string) {
	ctl := app.NewInboxController(client, broadcast)
	defer ctl.Close()
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		ctl.Load(ctx)
		mustClean(ctl.State().Error)
		for _, r := range ctl.State().Requests {
			fmt.Printf("%-30s  %-9s  attempts=%d/%d  expires=%s\n",
				r.Email, r.Status, r.Attempts, r.MaxAttempts, r.ExpiresAt.Format(time.RFC3339))
		}
	case "approve", "reject", "cancel":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		switch args[0] {
		case "approve":
			ctl.Approve(ctx, args[1])
		case "reject":
			ctl.Reject(ctx, args[1])
		case "cancel":
			ctl.Cancel(ctx, args[1], confirm("cancel the request for "+args[1]))
		}
		mustClean(ctl.State().Error)
		fmt.Println(ctl.State().Success)
	default:
		usage()
		os.Exit(2)
	}
}

// confirm asks for the explicit yes the destructive actions require.
func confirm(action string) bool {
	fmt.Printf("really %s? [y/N] ", action)
	var answer string
	_, _ = fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}

func mustClean(errMsg string) {
	if errMsg != "" {
		log.Fatal(errMsg)
	}
}
