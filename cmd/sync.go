package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pmdbsync/internal/utils"
	"pmdbsync/pkg/media"
	"pmdbsync/pkg/ratings"
	"pmdbsync/pkg/reconcile"
	"pmdbsync/pkg/services/omdb"
	"pmdbsync/pkg/services/pmdb"
	"pmdbsync/pkg/services/tmdb"
	"pmdbsync/pkg/services/tvdb"
	"pmdbsync/pkg/whttp"
)

const maxSearchResults = 10

// syncCmd implements: pmdbsync sync
//
// One interactive session: prompt for a title, search TMDB, collect
// identifiers and ratings, diff against what PMDB already holds, and
// submit the missing pieces. Loops until the operator declines.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Interactively reconcile titles into PMDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'pmdbsync sync --help'", args[0])
		}

		tmdbKey := viper.GetString("tmdb.api_key")
		pmdbKey := viper.GetString("pmdb.api_key")
		if tmdbKey == "" {
			return errors.New("tmdb.api_key not found in config. Add it to ~/.pmdbsync.yaml")
		}
		if pmdbKey == "" {
			return errors.New("pmdb.api_key not found in config. Add it to ~/.pmdbsync.yaml")
		}

		omdbKey := viper.GetString("omdb.api_key")
		if omdbKey == "" {
			utils.Log.Warn("omdb.api_key not found in config. OMDb ratings will be skipped.")
		}
		tvdbKey := viper.GetString("tvdb.api_key")
		if tvdbKey == "" {
			utils.Log.Warn("tvdb.api_key not found in config. TVDB series identifiers will be skipped.")
		}

		gw := whttp.NewClient()
		if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
			if err := gw.SetProxy(proxy); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		s := &session{
			prompt:   newPrompter(cmd.InOrStdin(), out),
			out:      out,
			colorize: shouldColorize(os.Stdout),
			tmdb:     tmdb.New(tmdbKey, tmdb.WithGateway(gw)),
			omdb:     omdb.New(omdbKey, omdb.WithGateway(gw)),
			tvdb:     tvdb.New(tvdbKey, tvdb.WithGateway(gw)),
			pmdb:     pmdb.New(pmdbKey, pmdb.WithGateway(gw)),
		}
		return s.run(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

type session struct {
	prompt   *prompter
	out      io.Writer
	colorize bool

	tmdb *tmdb.Client
	omdb *omdb.Client
	tvdb *tvdb.Client
	pmdb *pmdb.Client
}

// run is the interactive loop. An interrupt is honored between titles,
// never mid-call; any error during one title is reported and the loop
// moves on.
func (s *session) run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			fmt.Fprintln(s.out, "\nInterrupted.")
			return nil
		default:
		}

		if err := s.processTitle(ctx); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

		again, err := s.prompt.yesNo("\nProcess another title?", true)
		if err != nil || !again {
			fmt.Fprintln(s.out, "Done.")
			return nil
		}
		fmt.Fprintln(s.out)
	}
}

// processTitle drives one title through the whole pipeline.
func (s *session) processTitle(ctx context.Context) error {
	kind, err := s.prompt.mediaKind()
	if err != nil {
		return err
	}

	query, err := s.prompt.line("Enter title to search: ")
	if err != nil {
		return err
	}
	if query == "" {
		return errors.New("empty search query")
	}

	results, err := s.tmdb.Search(ctx, query, kind)
	if err != nil {
		utils.Log.Warnf("TMDB search failed: %v", err)
		results = nil
	}
	if len(results) == 0 {
		fmt.Fprintln(s.out, "No titles found.")
		return nil
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	s.showSearchResults(results)
	choice, err := s.prompt.selection(len(results))
	if err != nil {
		return err
	}
	if choice == 0 {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}
	title := results[choice-1]

	fmt.Fprintln(s.out, "\nFetching external IDs and rating from TMDB...")
	details := s.tmdb.Details(ctx, title.ID, kind)
	if details.ExternalIDs == nil || details.ExternalIDs.ImdbID == "" {
		fmt.Fprintln(s.out, "Could not find an IMDb ID for this title.")
		return nil
	}
	imdbID := details.ExternalIDs.ImdbID

	raw := ratings.RawScores{}
	if details.Info != nil {
		raw.VoteAverage = details.Info.VoteAverage
	}
	if s.omdb.Configured() {
		fmt.Fprintln(s.out, "Fetching ratings from OMDb...")
		res, err := s.omdb.Fetch(ctx, imdbID)
		if err != nil {
			utils.Log.Warnf("OMDb fetch failed: %v", err)
		} else if res != nil {
			raw.UserScore = res.UserScore
			raw.Sources = res.Sources
		}
	}
	collected := ratings.Normalize(raw)

	tvdbID := ""
	if kind == media.Series && s.tvdb.Configured() {
		fmt.Fprintln(s.out, "Resolving TVDB series identifier...")
		tvdbID, err = s.tvdb.Resolve(ctx, imdbID)
		if err != nil {
			utils.Log.Warnf("TVDB resolution failed: %v", err)
			tvdbID = ""
		}
	}

	fmt.Fprintln(s.out, "Checking existing mappings and ratings in PMDB...")
	snap := reconcile.Snapshot{
		Mappings:     s.pmdb.Mappings(ctx, title.ID, kind),
		RatingLabels: s.pmdb.RatingLabels(ctx, title.ID, kind),
	}
	plan := reconcile.BuildPlan(reconcile.CandidateMappings(imdbID, kind, tvdbID), collected, snap)

	fmt.Fprintln(s.out)
	s.showPlan(title, imdbID, plan)

	s.submitMappings(ctx, title, kind, plan)
	s.submitRatings(ctx, title, kind, plan)
	return nil
}

func (s *session) submitMappings(ctx context.Context, title media.Title, kind media.Kind, plan reconcile.Plan) {
	if len(plan.NewMappings) == 0 {
		if len(plan.SkippedMappings) > 0 {
			fmt.Fprintln(s.out, "All identifier mappings already exist in PMDB.")
		}
		return
	}

	ok, err := s.prompt.yesNo(fmt.Sprintf("Submit %d identifier mapping(s) to PMDB?", len(plan.NewMappings)), true)
	if err != nil || !ok {
		fmt.Fprintln(s.out, "Mapping submission skipped.")
		return
	}

	submitted := 0
	for _, m := range plan.NewMappings {
		if s.pmdb.SubmitMapping(ctx, title.ID, kind, m.IDType, m.Value) {
			fmt.Fprintf(s.out, "  + Mapping submitted: TMDB %s -> %s %s\n", title.ID, m.IDType, m.Value)
			submitted++
		} else {
			fmt.Fprintf(s.out, "  x Mapping failed: %s %s\n", m.IDType, m.Value)
		}
	}
	fmt.Fprintf(s.out, "Submitted %d of %d mapping(s).\n", submitted, len(plan.NewMappings))
}

func (s *session) submitRatings(ctx context.Context, title media.Title, kind media.Kind, plan reconcile.Plan) {
	if len(plan.NewRatings) == 0 {
		fmt.Fprintln(s.out, "No new ratings to submit - all ratings already exist in PMDB.")
		return
	}

	ok, err := s.prompt.yesNo(fmt.Sprintf("Submit %d new rating(s) to PMDB?", len(plan.NewRatings)), true)
	if err != nil || !ok {
		fmt.Fprintln(s.out, "Ratings submission skipped.")
		return
	}

	submitted := 0
	for _, r := range plan.NewRatings {
		if s.pmdb.SubmitRating(ctx, title.ID, kind, r.Label, r.Score) {
			fmt.Fprintf(s.out, "  + Rating submitted: %s = %.1f\n", r.Label, r.Score)
			submitted++
		} else {
			fmt.Fprintf(s.out, "  x Rating failed: %s\n", r.Label)
		}
	}
	fmt.Fprintf(s.out, "Submitted %d of %d rating(s).\n", submitted, len(plan.NewRatings))
	if len(plan.SkippedRatings) > 0 {
		fmt.Fprintf(s.out, "Skipped %d existing rating(s).\n", len(plan.SkippedRatings))
	}
}
