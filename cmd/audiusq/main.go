package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/sydlexius/audiusq/internal/assistant"
	"github.com/sydlexius/audiusq/internal/audius"
	"github.com/sydlexius/audiusq/internal/config"
	"github.com/sydlexius/audiusq/internal/logging"
	"github.com/sydlexius/audiusq/internal/match"
	"github.com/sydlexius/audiusq/internal/version"
)

const usage = `usage: audiusq [flags] <command> [args]

commands:
  ask <question>                          answer a question, e.g. "How many plays does Midnight City by M83 have?"
  search <tracks|users|playlists> <query> run a raw search
  track <id>                              show one track
  trending [-time week] [-genre name]     show the trending chart
  version                                 print the version

flags:
`

// errUsage marks a command-line mistake; main exits 2 for it.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		if err != errUsage { //nolint:errorlint // bare sentinel was already reported
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("audiusq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default $"+config.EnvConfigPath+")")
	jsonOut := fs.Bool("json", false, "write JSON even when stdout is a terminal")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage) //nolint:errcheck
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.NewManager(cfg.Logging, stderr)
	defer logManager.Close() //nolint:errcheck
	if *verbose {
		logManager.SetLevel("debug")
	}
	slog.SetDefault(logger)

	out := newPrinter(stdout, *jsonOut || !isTerminal(stdout))

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "version" {
		return out.line("audiusq " + version.Version)
	}

	client := audius.New(cfg.ClientOptions(), logger)
	logger.Debug("client ready",
		slog.String("app_name", client.AppName()),
		slog.Bool("credentials", client.HasCredentials()),
		slog.String("logging", cfg.Logging.String()))

	switch cmd {
	case "ask":
		return runAsk(ctx, client, cfg, logger, rest, out)
	case "search":
		return runSearch(ctx, client, rest, out, stderr)
	case "track":
		return runTrack(ctx, client, rest, out, stderr)
	case "trending":
		return runTrending(ctx, client, rest, out, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd) //nolint:errcheck
		fs.Usage()
		return errUsage
	}
}

func runAsk(ctx context.Context, client *audius.Client, cfg *config.Config, logger *slog.Logger, args []string, out *printer) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%w: ask needs a question", errUsage)
	}
	svc := assistant.New(client, assistant.Options{
		Limit: cfg.Match.Limit,
		Match: match.Options{Strict: cfg.Match.Strict, Alternatives: cfg.Match.Alternatives},
	}, logger)

	answer, err := svc.Ask(ctx, question)
	if err != nil {
		return err
	}
	return out.answer(answer)
}

func runSearch(ctx context.Context, client *audius.Client, args []string, out *printer, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", 10, "maximum results")
	offset := fs.Int("offset", 0, "results to skip")
	genre := fs.String("genre", "", "track genre filter")
	verified := fs.Bool("verified", false, "only verified users")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "usage: audiusq search [-limit n] [-offset n] <tracks|users|playlists> <query>") //nolint:errcheck
		return errUsage
	}
	resource, q := fs.Arg(0), strings.Join(fs.Args()[1:], " ")

	switch audius.Resource(resource) {
	case audius.ResourceTracks:
		resp, err := client.SearchTracks(ctx, audius.TrackSearch{Query: q, Genre: *genre, Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}
		return out.tracks(resp.Data)
	case audius.ResourceUsers:
		params := audius.UserSearch{Query: q, Limit: *limit, Offset: *offset}
		if *verified {
			params.OnlyVerified = verified
		}
		resp, err := client.SearchUsers(ctx, params)
		if err != nil {
			return err
		}
		return out.users(resp.Data)
	case audius.ResourcePlaylists:
		resp, err := client.SearchPlaylists(ctx, audius.PlaylistSearch{Query: q, Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}
		return out.playlists(resp.Data)
	default:
		return fmt.Errorf("%w: unknown resource %q", errUsage, resource)
	}
}

func runTrack(ctx context.Context, client *audius.Client, args []string, out *printer, stderr io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: audiusq track <id>") //nolint:errcheck
		return errUsage
	}
	track, err := client.GetTrack(ctx, args[0])
	if err != nil {
		return err
	}
	return out.tracks([]audius.Track{*track})
}

func runTrending(ctx context.Context, client *audius.Client, args []string, out *printer, stderr io.Writer) error {
	fs := flag.NewFlagSet("trending", flag.ContinueOnError)
	fs.SetOutput(stderr)
	period := fs.String("time", string(audius.TrendingWeek), "week, month, year or allTime")
	genre := fs.String("genre", "", "genre filter")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	tracks, err := client.TrendingTracks(ctx, audius.TrendingParams{
		Time:  audius.TrendingPeriod(*period),
		Genre: *genre,
	})
	if err != nil {
		return err
	}
	return out.tracks(tracks)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
