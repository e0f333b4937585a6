package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/giftgenius/internal/config"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/profile"
	"github.com/kalambet/giftgenius/internal/session"
)

type giftsResponse struct {
	GiftIdeas []profile.GiftIdea `json:"gift_ideas"`
}

type tagsResponse struct {
	SuggestedTags []string `json:"suggested_tags"`
}

type modelsResponse struct {
	Default string         `json:"default"`
	Models  []models.Model `json:"models"`
}

func readProfile(path string) (profile.Profile, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- generate ---

type generateOptions struct {
	Profile profile.Profile
	Exclude []string
	Model   string
	JSON    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate gift ideas for a profile",
	Long: `Generate gift ideas for a recipient profile stored as JSON.

Examples:
  giftgenius generate --profile ./maman.json
  giftgenius generate --profile ./maman.json --model llama-3.3-70b-versatile --exclude "Parfum,Bougie"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("profile")
		model, _ := cmd.Flags().GetString("model")
		exclude, _ := cmd.Flags().GetString("exclude")
		asJSON, _ := cmd.Flags().GetBool("json")

		p, err := readProfile(path)
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runGenerate(cmd.Context(), client, cmd.OutOrStdout(), generateOptions{
			Profile: p,
			Exclude: splitList(exclude),
			Model:   model,
			JSON:    asJSON,
		})
	},
}

func runGenerate(ctx context.Context, c *apiClient, w io.Writer, opts generateOptions) error {
	resp, err := c.post(ctx, "/api/generate-gifts", map[string]any{
		"profile":                    opts.Profile,
		"alreadySuggestedGiftTitles": opts.Exclude,
		"model":                      opts.Model,
	})
	if err != nil {
		return err
	}
	var res giftsResponse
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(w, res)
	}
	printIdeas(w, res.GiftIdeas)
	return nil
}

func init() {
	generateCmd.Flags().String("profile", "", "profile JSON file (- for stdin)")
	generateCmd.Flags().String("model", "", "model id (default: server default)")
	generateCmd.Flags().String("exclude", "", "comma-separated titles already suggested")
	generateCmd.Flags().Bool("json", false, "print the raw JSON response")
	generateCmd.MarkFlagRequired("profile")
}

// --- suggest ---

type suggestOptions struct {
	Tags    []string
	Ignore  []string
	Sliders map[string]int
	Model   string
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest interests adjacent to the given ones",
	Long: `Suggest interests adjacent to the given ones.

Examples:
  giftgenius suggest --tags "Jazz,Cuisine"
  giftgenius suggest --tags Jazz --ignore Golf --slider calmeEnergie=20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetString("tags")
		ignore, _ := cmd.Flags().GetString("ignore")
		sliders, _ := cmd.Flags().GetStringToInt("slider")
		model, _ := cmd.Flags().GetString("model")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSuggest(cmd.Context(), client, cmd.OutOrStdout(), suggestOptions{
			Tags:    splitList(tags),
			Ignore:  splitList(ignore),
			Sliders: sliders,
			Model:   model,
		})
	},
}

func runSuggest(ctx context.Context, c *apiClient, w io.Writer, opts suggestOptions) error {
	body := map[string]any{
		"currentTags": nonNilStrings(opts.Tags),
		"ignoredTags": nonNilStrings(opts.Ignore),
		"model":       opts.Model,
	}
	if len(opts.Sliders) > 0 {
		body["sliders"] = opts.Sliders
	}
	resp, err := c.post(ctx, "/api/suggest-tags", body)
	if err != nil {
		return err
	}
	var res tagsResponse
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	printTags(w, res.SuggestedTags)
	return nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func init() {
	suggestCmd.Flags().String("tags", "", "comma-separated current interests")
	suggestCmd.Flags().String("ignore", "", "comma-separated suggestions to avoid")
	suggestCmd.Flags().StringToInt("slider", nil, "psychology slider, e.g. calmeEnergie=70 (repeatable)")
	suggestCmd.Flags().String("model", "", "model id (default: server default)")
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List selectable models",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runModels(cmd.Context(), client, cmd.OutOrStdout())
	},
}

func runModels(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/api/models")
	if err != nil {
		return err
	}
	var res modelsResponse
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	printModels(w, res)
	return nil
}

// --- session ---

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Work with persistent sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session, optionally from a profile file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("profile")
		model, _ := cmd.Flags().GetString("model")

		var p *profile.Profile
		if path != "" {
			loaded, err := readProfile(path)
			if err != nil {
				return err
			}
			p = &loaded
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionCreate(cmd.Context(), client, cmd.OutOrStdout(), p, model)
	},
}

func runSessionCreate(ctx context.Context, c *apiClient, w io.Writer, p *profile.Profile, model string) error {
	body := map[string]any{"model": model}
	if p != nil {
		body["profile"] = p
	}
	resp, err := c.post(ctx, "/api/sessions", body)
	if err != nil {
		return err
	}
	var v session.View
	if err := decodeJSON(resp, &v); err != nil {
		return err
	}
	printSuccess("Created session %s (model %s)", v.ID, v.Model)
	fmt.Fprintln(w, v.ID)
	return nil
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionList(cmd.Context(), client, cmd.OutOrStdout(), limit)
	},
}

func runSessionList(ctx context.Context, c *apiClient, w io.Writer, limit int) error {
	resp, err := c.get(ctx, fmt.Sprintf("/api/sessions?limit=%d", limit))
	if err != nil {
		return err
	}
	var res struct {
		Sessions []session.View `json:"sessions"`
	}
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	if len(res.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, s := range res.Sessions {
		fmt.Fprintf(w, "%s  %s  %s\n", colorize(colorCyan, s.ID), s.UpdatedAt.Format("2006-01-02 15:04"), s.Model)
	}
	return nil
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session with its gift ideas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionShow(cmd.Context(), client, cmd.OutOrStdout(), args[0], asJSON)
	},
}

func runSessionShow(ctx context.Context, c *apiClient, w io.Writer, id string, asJSON bool) error {
	resp, err := c.get(ctx, "/api/sessions/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	var v session.View
	if err := decodeJSON(resp, &v); err != nil {
		return err
	}
	if asJSON {
		return printJSON(w, v)
	}
	printSession(w, v)
	return nil
}

var sessionGenerateCmd = &cobra.Command{
	Use:   "generate <id>",
	Short: "Generate a new batch of ideas for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionGenerate(cmd.Context(), client, cmd.OutOrStdout(), args[0])
	},
}

func runSessionGenerate(ctx context.Context, c *apiClient, w io.Writer, id string) error {
	resp, err := c.post(ctx, "/api/sessions/"+url.PathEscape(id)+"/generate", nil)
	if err != nil {
		return err
	}
	var res giftsResponse
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	printIdeas(w, res.GiftIdeas)
	return nil
}

var sessionSuggestCmd = &cobra.Command{
	Use:   "suggest <id>",
	Short: "Suggest new interests for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionSuggest(cmd.Context(), client, cmd.OutOrStdout(), args[0])
	},
}

func runSessionSuggest(ctx context.Context, c *apiClient, w io.Writer, id string) error {
	resp, err := c.post(ctx, "/api/sessions/"+url.PathEscape(id)+"/suggest-tags", nil)
	if err != nil {
		return err
	}
	var res tagsResponse
	if err := decodeJSON(resp, &res); err != nil {
		return err
	}
	printTags(w, res.SuggestedTags)
	return nil
}

var sessionDismissCmd = &cobra.Command{
	Use:   "dismiss <id> <gift-id>",
	Short: "Hide a gift idea, optionally blacklisting a theme",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		blacklist, _ := cmd.Flags().GetString("blacklist")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSessionDismiss(cmd.Context(), client, args[0], args[1], blacklist)
	},
}

func runSessionDismiss(ctx context.Context, c *apiClient, id, giftID, blacklist string) error {
	path := "/api/sessions/" + url.PathEscape(id) + "/gifts/" + url.PathEscape(giftID) + "/dismiss"
	resp, err := c.post(ctx, path, map[string]string{"blacklist": blacklist})
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, nil); err != nil {
		return err
	}
	if blacklist != "" {
		printSuccess("Dismissed %s and blacklisted %q", giftID, blacklist)
	} else {
		printSuccess("Dismissed %s", giftID)
	}
	return nil
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/api/sessions/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

var sessionModelCmd = &cobra.Command{
	Use:   "model <id> <model>",
	Short: "Select the model used by a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/api/sessions/"+url.PathEscape(args[0])+"/model", map[string]string{"model": args[1]})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Session %s now uses %s", args[0], args[1])
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().String("profile", "", "profile JSON file (- for stdin)")
	sessionCreateCmd.Flags().String("model", "", "model id (default: server default)")
	sessionListCmd.Flags().Int("limit", 20, "maximum number of sessions to list")
	sessionShowCmd.Flags().Bool("json", false, "print the raw JSON session")
	sessionDismissCmd.Flags().String("blacklist", "", "theme to add to the blacklist")

	sessionCmd.AddCommand(sessionCreateCmd, sessionListCmd, sessionShowCmd, sessionGenerateCmd,
		sessionSuggestCmd, sessionDismissCmd, sessionDeleteCmd, sessionModelCmd)
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
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
