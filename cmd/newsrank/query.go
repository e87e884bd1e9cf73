package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

var (
	searchOpts    = domain.DefaultSearchOptions()
	searchUser    string
	noSemantic    bool
	recommendOpts domain.RecommendationRequest
	trendingLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank articles for a query and print the result envelope",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := searchOpts
		opts.IncludeSemanticRanking = !noSemantic
		query := strings.Join(args, " ")

		var result *domain.SearchResult
		if searchUser != "" {
			result, err = a.search.PersonalizedSearch(cmd.Context(), query, searchUser, opts)
		} else {
			result, err = a.search.Search(cmd.Context(), query, opts)
		}
		// The failed envelope is printed before the error
		if result != nil {
			if printErr := printJSON(cmd, result); printErr != nil {
				return printErr
			}
		}
		return err
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Print personalized recommendations for a reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		req := recommendOpts
		req.UserID = args[0]
		result, err := a.recommendations.GetRecommendations(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Print regionally trending articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		trending, err := a.recommendations.Trending(cmd.Context(), trendingLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, trending)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := searchCmd.Flags()
	f.IntVar(&searchOpts.Limit, "limit", domain.DefaultSearchLimit, "maximum results")
	f.StringVar(&searchOpts.Language, "language", "", "restrict to a language (en, sw, ha, yo, ig, am, zu, fr, ar, pt)")
	f.StringVar(&searchOpts.Region, "region", "", "reader region, e.g. NG or KE")
	f.StringVar((*string)(&searchOpts.DiversityLevel), "diversity", "", "diversity level: low, medium or high")
	f.IntVar(&searchOpts.MaxResponseTimeMs, "budget-ms", searchOpts.MaxResponseTimeMs, "response time budget in milliseconds")
	f.BoolVar(&noSemantic, "no-semantic", false, "lexical retrieval only")
	f.BoolVar(&searchOpts.OptimizeForMobile, "mobile", false, "trim content for mobile clients")
	f.StringVar(&searchUser, "user", "", "apply this reader's profile")

	r := recommendCmd.Flags()
	r.IntVar(&recommendOpts.Limit, "limit", domain.DefaultRecommendationLimit, "maximum recommendations")
	r.StringSliceVar(&recommendOpts.Categories, "category", nil, "restrict to categories (repeatable)")
	r.BoolVar(&recommendOpts.ExcludeRead, "exclude-read", false, "skip articles the reader viewed")
	r.StringVar((*string)(&recommendOpts.TimeRange), "time-range", string(domain.TimeRangeWeek), "candidate window: 24h, 7d or 30d")
	r.StringVar((*string)(&recommendOpts.DiversityLevel), "diversity", string(domain.DiversityMedium), "diversity level: low, medium or high")

	trendingCmd.Flags().IntVar(&trendingLimit, "limit", 10, "maximum articles")
}
