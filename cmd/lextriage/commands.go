package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lextriage/lextriage/internal/classify"
	"github.com/lextriage/lextriage/internal/config"
	"github.com/lextriage/lextriage/internal/corpus"
)

// --- classify ---

var classifyCmd = &cobra.Command{
	Use:   "classify <query...>",
	Short: "Classify a legal query into a domain",
	Long: `Classify a free-text legal query into a topical domain and show the
procedural guidance for it.

Examples:
  lextriage classify my landlord won't return my deposit
  lextriage classify --session abc123 "refund denied by seller"
  lextriage classify --feedback "not helpful, wrong domain" same query as before`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")
		feedback, _ := cmd.Flags().GetString("feedback")
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"query": query}
		if feedback != "" {
			req["feedback"] = feedback
		}
		if session != "" {
			req["session_id"] = session
		}

		resp, err := client.post(ctx, "/classify", req)
		if err != nil {
			return err
		}

		var result struct {
			ConsultationID string  `json:"consultation_id"`
			Domain         string  `json:"domain"`
			Confidence     float64 `json:"confidence"`
			SessionID      string  `json:"session_id"`
			BaseDomain     string  `json:"base_domain"`
			Overrode       bool    `json:"overrode"`
			Guidance       *struct {
				Route struct {
					Summary  string `json:"summary"`
					Timeline string `json:"timeline"`
					Outcome  string `json:"outcome"`
				} `json:"route"`
				Steps []string `json:"steps"`
			} `json:"guidance"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s  (confidence %.0f%%)\n",
			colorize(colorBold, "Domain:"), result.Domain, result.Confidence*100)
		if result.Overrode {
			printWarning("Reclassified away from %s based on your earlier feedback", result.BaseDomain)
		}
		if result.Guidance != nil {
			fmt.Printf("\n%s\n", result.Guidance.Route.Summary)
			fmt.Printf("%s %s\n", colorize(colorBold, "Timeline:"), result.Guidance.Route.Timeline)
			fmt.Printf("%s %s\n", colorize(colorBold, "Outcome:"), result.Guidance.Route.Outcome)
			if len(result.Guidance.Steps) > 0 {
				fmt.Printf("\n%s\n", colorize(colorBold, "Next steps:"))
				for i, step := range result.Guidance.Steps {
					fmt.Printf("  %d. %s\n", i+1, step)
				}
			}
		}
		fmt.Printf("\n%s %s  %s %s\n",
			colorize(colorBold, "Consultation:"), result.ConsultationID,
			colorize(colorBold, "Session:"), result.SessionID)
		printStep("Was this useful? lextriage feedback %s \"...\"", result.ConsultationID)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("feedback", "", "feedback on the previous answer for this query")
	classifyCmd.Flags().String("session", "", "session ID to group related queries")
}

// --- feedback ---

var feedbackCmd = &cobra.Command{
	Use:   "feedback <consultation-id> <text...>",
	Short: "Send feedback on a past classification",
	Long: `Send feedback on a past classification so the assistant learns.

By default the first argument is the consultation ID printed by 'classify'.
With --query and --domain the classification is addressed directly and all
arguments are feedback text.

Examples:
  lextriage feedback 4be71e0c-... "helpful, correct domain"
  lextriage feedback --query "refund denied" --domain consumer_complaint "wrong"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query, _ := cmd.Flags().GetString("query")
		domain, _ := cmd.Flags().GetString("domain")

		req := map[string]any{}
		switch {
		case query != "" && domain != "":
			req["query"] = query
			req["domain"] = domain
			req["feedback"] = strings.Join(args, " ")
		case query != "" || domain != "":
			return fmt.Errorf("--query and --domain must be used together")
		default:
			if len(args) < 2 {
				return fmt.Errorf("feedback text is required after the consultation ID")
			}
			req["consultation_id"] = args[0]
			req["feedback"] = strings.Join(args[1:], " ")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(ctx, "/feedback", req)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Recorded %s feedback for %s", result["polarity"], result["domain"])
		return nil
	},
}

func init() {
	feedbackCmd.Flags().String("query", "", "the query text the feedback refers to")
	feedbackCmd.Flags().String("domain", "", "the domain that was assigned")
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(ctx, "/stats")
		if err != nil {
			return err
		}

		var stats struct {
			TotalFeedback         int                `json:"total_feedback_processed"`
			PositiveCount         int                `json:"positive_count"`
			NegativeCount         int                `json:"negative_count"`
			ConfidenceAdjustments map[string]float64 `json:"confidence_adjustments"`
			TotalConsultations    int                `json:"total_consultations"`
			DomainCounts          map[string]int     `json:"domain_counts"`
		}
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Consultations", "%d", stats.TotalConsultations)
		printStatus("Feedback processed", "%d (%d positive, %d negative)",
			stats.TotalFeedback, stats.PositiveCount, stats.NegativeCount)

		if len(stats.ConfidenceAdjustments) > 0 {
			fmt.Fprintln(os.Stderr, colorize(colorBold, "  Confidence adjustments:"))
			for _, domain := range sortedKeys(stats.ConfidenceAdjustments) {
				fmt.Fprintf(os.Stderr, "    %-24s %+.2f\n", domain, stats.ConfidenceAdjustments[domain])
			}
		}
		if len(stats.DomainCounts) > 0 {
			fmt.Fprintln(os.Stderr, colorize(colorBold, "  Consultations per domain:"))
			for _, domain := range sortedCountKeys(stats.DomainCounts) {
				fmt.Fprintf(os.Stderr, "    %-24s %d\n", domain, stats.DomainCounts[domain])
			}
		}
		return nil
	},
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all learned feedback state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will erase ALL learned feedback. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(ctx, "/reset", map[string]any{"confirm": true})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Learning state cleared")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("confirm", false, "confirm the irreversible reset")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past consultations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent consultations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/history?limit=%d&offset=%d", limit, offset)
		resp, err := client.get(ctx, path)
		if err != nil {
			return err
		}

		var consultations []struct {
			ID         string  `json:"id"`
			CreatedAt  string  `json:"created_at"`
			Query      string  `json:"query"`
			Domain     string  `json:"domain"`
			Confidence float64 `json:"confidence"`
			Polarity   string  `json:"polarity"`
		}
		if err := decodeJSON(resp, &consultations); err != nil {
			return err
		}

		if len(consultations) == 0 {
			fmt.Println("No consultations recorded.")
			return nil
		}

		for _, c := range consultations {
			marker := " "
			switch c.Polarity {
			case "positive":
				marker = colorize(colorGreen, "+")
			case "negative":
				marker = colorize(colorRed, "-")
			}
			fmt.Printf("%s %s  %s  %-20s %3.0f%%  %s\n",
				marker,
				colorize(colorCyan, c.ID[:8]),
				c.CreatedAt,
				c.Domain,
				c.Confidence*100,
				truncate(c.Query, 60),
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single consultation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(ctx, "/history/"+args[0])
		if err != nil {
			return err
		}

		var consultation any
		if err := decodeJSON(resp, &consultation); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(consultation)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a consultation record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(ctx, "/history/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted consultation %s", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of consultations to list")
	historyListCmd.Flags().Int("offset", 0, "number of consultations to skip")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// --- guidance ---

var guidanceCmd = &cobra.Command{
	Use:   "guidance <domain>",
	Short: "Show procedural guidance for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(ctx, "/guidance/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var result struct {
			Domain string `json:"domain"`
			Route  struct {
				Summary  string `json:"summary"`
				Timeline string `json:"timeline"`
				Outcome  string `json:"outcome"`
			} `json:"route"`
			Steps []string `json:"steps"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s %s\n\n", colorize(colorBold, "Domain:"), result.Domain)
		fmt.Println(result.Route.Summary)
		fmt.Printf("%s %s\n", colorize(colorBold, "Timeline:"), result.Route.Timeline)
		fmt.Printf("%s %s\n", colorize(colorBold, "Outcome:"), result.Route.Outcome)
		if len(result.Steps) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Steps:"))
			for i, step := range result.Steps {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
		}
		return nil
	},
}

// --- glossary ---

var glossaryCmd = &cobra.Command{
	Use:   "glossary <text...>",
	Short: "Explain legal terms found in text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(ctx, "/glossary?text="+url.QueryEscape(text))
		if err != nil {
			return err
		}

		var result struct {
			Terms map[string]string `json:"terms"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Terms) == 0 {
			fmt.Println("No known legal terms found.")
			return nil
		}

		for _, term := range sortedTermKeys(result.Terms) {
			fmt.Printf("%s\n  %s\n", colorize(colorBold, term), result.Terms[term])
		}
		return nil
	},
}

// --- corpus ---

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the training corpus",
}

var corpusInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show corpus domains and sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		examples, err := loadCorpus(cfg)
		if err != nil {
			return err
		}

		classifier, err := classify.New(examples)
		if err != nil {
			return fmt.Errorf("building classifier: %w", err)
		}

		source := "embedded"
		if cfg.Corpus.Path != "" {
			source = cfg.Corpus.Path
		}
		printStatus("Corpus", "%s", source)
		printStatus("Examples", "%d", classifier.ExampleCount())
		printStatus("Vocabulary", "%d terms", classifier.VocabularySize())

		perDomain := make(map[string]int)
		for _, ex := range examples {
			perDomain[ex.Domain]++
		}
		fmt.Fprintln(os.Stderr, colorize(colorBold, "  Domains:"))
		for _, domain := range classifier.Domains() {
			fmt.Fprintf(os.Stderr, "    %-24s %d examples\n", domain, perDomain[domain])
		}
		return nil
	},
}

func init() {
	corpusCmd.AddCommand(corpusInfoCmd)
}

func loadCorpus(cfg config.Config) ([]corpus.Example, error) {
	if cfg.Corpus.Path != "" {
		return corpus.LoadFile(cfg.Corpus.Path)
	}
	return corpus.Load()
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

// --- helpers ---

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTermKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
