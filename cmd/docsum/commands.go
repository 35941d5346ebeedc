package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/custodia-labs/docsum/internal/adapters/driving/http"
	"github.com/custodia-labs/docsum/internal/core/domain"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"login -email E [-password P]", runLogin},
	"register":      {"register -email E -username U [-name N] [-password P]", runRegister},
	"logout":        {"logout", runLogout},
	"whoami":        {"whoami", runWhoAmI},
	"refresh-token": {"refresh-token", runRefreshToken},
	"list":          {"list [-type pdf|docx|txt|doc]", runList},
	"stats":         {"stats", runStats},
	"search":        {"search [-type T] [-from DATE] [-to DATE] [-limit N] TEXT", runSearch},
	"upload":        {"upload -title T FILE", runUpload},
	"show":          {"show ID", runShow},
	"delete":        {"delete ID", runDelete},
	"summarize":     {"summarize ID [ID...]", runSummarize},
	"summary":       {"summary ID", runSummary},
	"ask":           {"ask ID QUESTION", runAsk},
	"serve":         {"serve", runServe},
}

var commandOrder = []string{
	"login", "register", "logout", "whoami", "refresh-token",
	"list", "stats", "search", "upload", "show", "delete",
	"summarize", "summary", "ask", "serve",
}

func usage() {
	fmt.Fprintf(os.Stderr, "docsum %s\n\nUsage:\n", version)
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  docsum %s\n", commands[name].usage)
	}
}

// Session commands

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("DOCSUM_PASSWORD"), "account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = prompt("Password: ")
	}

	session, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	color.Green("Logged in as %s", session.User.DisplayName())
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req domain.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Username, "username", "", "user name")
	fs.StringVar(&req.FullName, "name", "", "full name")
	fs.StringVar(&req.Password, "password", os.Getenv("DOCSUM_PASSWORD"), "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.Password == "" {
		req.Password = prompt("Password: ")
	}

	user, err := a.session.Register(ctx, req)
	if err != nil {
		return err
	}
	color.Green("Registered %s (%s). Log in to continue.", user.Username, user.Email)
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	a.session.Logout(ctx)
	color.Green("Logged out")
	return nil
}

func runWhoAmI(ctx context.Context, a *app, args []string) error {
	session := a.session.Initialize(ctx)
	if !session.Authenticated() {
		if expiry := a.session.LastExpiry(); expiry != nil {
			color.Yellow("%s", expiry.Message)
		} else {
			color.Yellow("Not logged in")
		}
		return nil
	}
	u := session.User
	fmt.Printf("%s %s\n", color.CyanString("User:"), u.DisplayName())
	fmt.Printf("%s %s\n", color.CyanString("Email:"), u.Email)
	fmt.Printf("%s %s\n", color.CyanString("Username:"), u.Username)
	return nil
}

func runRefreshToken(ctx context.Context, a *app, args []string) error {
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	if err := a.session.RefreshToken(ctx); err != nil {
		return err
	}
	color.Green("Token refreshed")
	return nil
}

// Catalog commands

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fileType := fs.String("type", "", "file type filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := domain.ParseFileType(*fileType)
	if err != nil {
		return fmt.Errorf("unknown file type %q", *fileType)
	}
	initSession(ctx, a)

	snap, err := a.catalog.Refresh(ctx, filter)
	if err != nil {
		return err
	}
	printDocuments(snap.Documents)
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	initSession(ctx, a)
	snap, err := a.catalog.EnsureFresh(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n", color.CyanString("Documents:"), snap.Stats.TotalCount)
	fmt.Printf("%s %s\n", color.CyanString("Total size:"), domain.HumanSize(snap.Stats.TotalSize))
	fmt.Printf("%s %d\n", color.CyanString("Added this week:"), snap.Stats.RecentCount)
	return nil
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fileType := fs.String("type", "", "file type filter")
	from := fs.String("from", "", "created on or after (YYYY-MM-DD)")
	to := fs.String("to", "", "created on or before (YYYY-MM-DD)")
	limit := fs.Int("limit", 0, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := domain.DocumentQuery{Text: strings.Join(fs.Args(), " "), Limit: *limit}
	var err error
	if q.FileType, err = domain.ParseFileType(*fileType); err != nil {
		return fmt.Errorf("unknown file type %q", *fileType)
	}
	if q.DateFrom, err = parseDay(*from); err != nil {
		return err
	}
	if q.DateTo, err = parseDay(*to); err != nil {
		return err
	}
	initSession(ctx, a)

	view := a.search.Apply(ctx, q)
	if view.Err != nil {
		return view.Err
	}
	if view.Mode == domain.RetrievalSearch {
		color.Cyan("%d result(s) for %q", len(view.Documents), view.Query.Text)
	}
	printDocuments(view.Documents)
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	initSession(ctx, a)

	doc, err := a.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.CyanString("Title:"), doc.Title)
	fmt.Printf("%s %s (%s, %s)\n", color.CyanString("File:"), doc.Filename, strings.ToUpper(string(doc.FileType)), domain.HumanSize(doc.FileSize))
	fmt.Printf("%s %s\n", color.CyanString("Uploaded:"), doc.CreatedAt.Local().Format(time.DateTime))
	printSummary(doc.Summary)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	initSession(ctx, a)
	if err := a.catalog.Delete(ctx, id); err != nil {
		return err
	}
	color.Green("Deleted document %d", id)
	return nil
}

// Upload

func runUpload(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	title := fs.String("title", "", "document title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	candidate := domain.UploadCandidate{Title: *title}
	if fs.NArg() > 0 {
		file, err := domain.FileFromPath(fs.Arg(0))
		if err != nil {
			return err
		}
		candidate.File = file
	}
	if _, err := a.uploads.Validate(candidate); err != nil {
		return err
	}
	initSession(ctx, a)

	a.uploads.Stage(candidate)
	doc, err := a.uploads.Submit(ctx)
	if err != nil {
		return err
	}
	color.Green("Uploaded %q as document %d", doc.Title, doc.ID)
	return nil
}

// Summaries

func runSummarize(ctx context.Context, a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	initSession(ctx, a)
	if len(args) > 1 {
		return runBatchSummarize(ctx, a, args)
	}

	a.summary.SelectDocument(id)
	color.Cyan("Generating summary...")
	state, err := a.summary.Generate(ctx)
	if err != nil {
		return err
	}
	printSummary(state.Result)
	return nil
}

func runBatchSummarize(ctx context.Context, a *app, args []string) error {
	ids := make([]int64, 0, len(args))
	for i := range args {
		id, err := idArg(args[i:])
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	color.Cyan("Summarizing %d documents...", len(ids))
	res, err := a.summary.Batch(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range res.Items {
		if item.Success {
			fmt.Printf("%s %d\n", color.GreenString("ok  "), item.DocumentID)
		} else {
			fmt.Printf("%s %d %s\n", color.RedString("fail"), item.DocumentID, item.Error)
		}
	}
	color.Cyan("%d of %d summarized", res.Successful, res.Processed)
	return nil
}

func runSummary(ctx context.Context, a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	initSession(ctx, a)

	stored, err := a.summary.Existing(ctx, id)
	if err != nil {
		return err
	}
	if stored.Title != "" {
		fmt.Printf("%s %s\n", color.CyanString("Title:"), stored.Title)
	}
	printSummary(stored.Summary)
	return nil
}

func runAsk(ctx context.Context, a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	initSession(ctx, a)

	answer, err := a.summary.Ask(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.CyanString("Q:"), answer.Question)
	fmt.Printf("%s %s\n", color.CyanString("A:"), answer.Answer)
	return nil
}

// Bridge

func runServe(ctx context.Context, a *app, args []string) error {
	a.session.Initialize(ctx)

	server := http.NewServer(http.Config{
		Host:    a.cfg.Bridge.Host,
		Port:    a.cfg.Bridge.Port,
		Version: version,
		Logger:  a.logger,
	}, http.Services{
		Session: a.session,
		Catalog: a.catalog,
		Search:  a.search,
		Uploads: a.uploads,
		Summary: a.summary,
	})

	color.Green("Bridge listening on http://%s", server.Addr())
	return server.Run(ctx)
}

// Helper functions

// initSession validates the persisted token. Commands still run without one
// so the service's own error reaches the user.
func initSession(ctx context.Context, a *app) {
	if !a.session.Initialize(ctx).Authenticated() {
		if expiry := a.session.LastExpiry(); expiry != nil {
			color.Yellow("%s", expiry.Message)
		}
	}
}

func requireSession(ctx context.Context, a *app) error {
	if a.session.Initialize(ctx).Authenticated() {
		return nil
	}
	if expiry := a.session.LastExpiry(); expiry != nil {
		return expiry
	}
	return errors.New("not logged in")
}

func idArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("document id is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", args[0])
	}
	return id, nil
}

func parseDay(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return &t, nil
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func printDocuments(docs []*domain.Document) {
	if len(docs) == 0 {
		color.Yellow("No documents")
		return
	}
	for _, d := range docs {
		marker := " "
		if d.HasSummary() {
			marker = color.GreenString("*")
		}
		fmt.Printf("%s %5d  %-40s %-5s %10s  %s\n",
			marker,
			d.ID,
			d.Title,
			strings.ToUpper(string(d.FileType)),
			domain.HumanSize(d.FileSize),
			d.CreatedAt.Local().Format(time.DateOnly),
		)
	}
}

func printSummary(info *domain.SummaryInfo) {
	if info == nil {
		color.Yellow("No summary yet")
		return
	}
	fmt.Printf("%s\n%s\n", color.CyanString("Summary:"), info.Summary)
	if kw := info.KeywordList(); len(kw) > 0 {
		fmt.Printf("%s %s\n", color.CyanString("Keywords:"), strings.Join(kw, ", "))
	}
}

func printError(err error) {
	if ce, ok := domain.AsClientError(err); ok {
		if ce.Code != "" {
			color.Red("%s error (%s): %s", ce.Kind, ce.Code, ce.Message)
		} else {
			color.Red("%s error: %s", ce.Kind, ce.Message)
		}
		return
	}
	color.Red("Error: %v", err)
}
