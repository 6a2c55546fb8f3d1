// Package main is the entry point for the Faculty Files admin CLI.
// This tool provides operator commands for probing storage, issuing sessions
// and inspecting the activity log.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prn-tf/faculty-files/internal/app"
	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/logging"
	"github.com/prn-tf/faculty-files/internal/repository"
	"github.com/prn-tf/faculty-files/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("Faculty Files Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "path":
		err = runPath(args)

	case "probe":
		err = withApp(func(ctx context.Context, a *app.App) error { return runProbe(ctx, a, args) })

	case "sign":
		err = withApp(func(ctx context.Context, a *app.App) error { return runSign(ctx, a, args) })

	case "session":
		err = withApp(func(ctx context.Context, a *app.App) error { return runSession(ctx, a, args) })

	case "activity":
		err = withApp(func(ctx context.Context, a *app.App) error { return runActivity(ctx, a, args) })

	case "user":
		err = withApp(func(ctx context.Context, a *app.App) error { return runUser(ctx, a, args) })

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp loads configuration, wires the application and runs fn.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(os.Getenv("FACULTY_CONFIG"))
	if err != nil {
		return err
	}

	// Keep stdout for command output.
	cfg.Logging.Output = "stderr"
	if os.Getenv("FACULTY_LOGGING_LEVEL") == "" {
		cfg.Logging.Level = "warn"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// runPath prints the virtual path for a pattern:
//
//	faculty-admin path <patternType> folder=<name> ext=<ext> [user=] [record=] [file=] [email=] [metric=]
func runPath(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: faculty-admin path <patternType> folder=<name> ext=<ext> [key=value...]")
	}

	patternType, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("pattern type must be a number: %w", err)
	}

	fields := domain.PatternFields{PatternType: patternType}
	for _, kv := range args[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		switch key {
		case "folder":
			fields.FolderName = value
		case "ext":
			fields.FileExtension = value
		case "email":
			fields.Email = value
		case "metric":
			fields.MetricName = value
		case "user", "record", "file":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s must be a number: %w", key, err)
			}
			switch key {
			case "user":
				fields.UserID = n
			case "record":
				fields.RecordID = n
			case "file":
				fields.FileNum = n
			}
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}

	pattern, err := domain.BuildPattern(fields)
	if err != nil {
		return err
	}
	virtualPath, err := storage.GenerateVirtualPath(pattern)
	if err != nil {
		return err
	}

	fmt.Println(virtualPath)
	if !storage.ValidateVirtualPath(virtualPath) {
		fmt.Fprintln(os.Stderr, "warning: the generated path does not pass validation")
	}
	return nil
}

func runProbe(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: faculty-admin probe folder|object <name>")
	}

	switch args[0] {
	case "folder":
		return printJSON(a.Storage.CheckFolderExists(ctx, args[1]))
	case "object":
		return printJSON(a.Storage.CheckObjectExists(ctx, args[1]))
	default:
		return fmt.Errorf("unknown probe %q", args[0])
	}
}

func runSign(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: faculty-admin sign <virtualPath> [expiresInSeconds]")
	}

	var expiresIn time.Duration
	if len(args) == 2 {
		seconds, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("expiresIn must be a number of seconds: %w", err)
		}
		expiresIn = time.Duration(seconds) * time.Second
	}

	return printJSON(a.Storage.SignedURL(ctx, args[0], expiresIn))
}

func runSession(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 3 || args[0] != "issue" {
		return fmt.Errorf("usage: faculty-admin session issue <userId> <userType> [ttl]")
	}
	if !a.Config.Redis.Enabled {
		return fmt.Errorf("sessions issued here are only visible to the server through redis; set redis.enabled")
	}

	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("userId must be a number: %w", err)
	}

	ttl := a.Config.Session.TTL
	if len(args) > 3 {
		ttl, err = time.ParseDuration(args[3])
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}

	token, err := a.Sessions.Issue(ctx, auth.Identity{UserID: userID, UserType: args[2]}, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runActivity(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 || args[0] != "tail" {
		return fmt.Errorf("usage: faculty-admin activity tail [limit] [entityName]")
	}

	opts := repository.ActivityListOptions{Limit: 20}
	if len(args) > 1 {
		limit, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("limit must be a number: %w", err)
		}
		opts.Limit = limit
	}
	if len(args) > 2 {
		opts.EntityName = args[2]
	}

	entries, err := a.Repos.Activity.ListRecent(ctx, opts)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-6s  %-24s  entity=%s  user=%s/%s  %s\n",
			e.CreatedAt.Format(time.RFC3339),
			e.Action,
			e.EntityName,
			formatInt(e.EntityID),
			formatInt(e.UserID),
			formatString(e.UserType),
			e.VirtualPath,
		)
	}
	return nil
}

func runUser(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 3 || args[0] != "set-type" {
		return fmt.Errorf("usage: faculty-admin user set-type <roleId> <userType>")
	}

	roleID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("roleId must be a number: %w", err)
	}

	return a.Repos.User.Upsert(ctx, &domain.User{RoleID: roleID, UserType: args[2]})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func formatString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func printUsage() {
	fmt.Println(`Faculty Files Admin CLI

Usage:
  faculty-admin <command> [arguments]

Commands:
  path        Print the virtual path for a naming pattern
  probe       Check whether a folder or object exists in S3
  sign        Generate a signed download URL
  session     Issue a session token (requires redis)
  activity    Show recent activity log entries
  user        Set the user type used for activity attribution
  version     Print version information
  help        Show this help message

Examples:
  faculty-admin path 1 folder=research_papers ext=pdf user=1 record=69603
  faculty-admin probe folder dept_events
  faculty-admin probe object upload/dept_events/42.pdf
  faculty-admin sign upload/dept_events/42.pdf 600
  faculty-admin session issue 1 faculty 8h
  faculty-admin activity tail 50 research_papers
  faculty-admin user set-type 1 faculty

Configuration is read from FACULTY_CONFIG or ./config.yaml and FACULTY_* variables.`)
}
