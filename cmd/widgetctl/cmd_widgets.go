package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sitewidgets/pkg/branding"
	"sitewidgets/pkg/widgetdata"
)

var (
	widgetFlag      string
	siteFlag        string
	defaultSiteFlag int
	fileFlag        string
	ttlFlag         time.Duration
	loggedInFlag    bool
	disabledFlag    bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show what a widget would display",
	Long: `Resolve the data for a widget the same way the widget does.

Without --widget every widget offered by the app variant is resolved.
Without --site the configured (or --default-site) default site is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		kinds := widgetdata.Kinds(cfg.Jetpack)
		if widgetFlag != "" {
			kind, err := widgetdata.ParseKind(widgetFlag)
			if err != nil {
				return err
			}
			kinds = []widgetdata.Kind{kind}
		}

		defaultSite := cfg.DefaultSite()
		if cmd.Flags().Changed("default-site") {
			defaultSite = &defaultSiteFlag
		}

		observer := widgetdata.NewSlogObserver(logger, slog.LevelDebug)
		results := make([]resolution, 0, len(kinds))
		for _, kind := range kinds {
			res, err := resolveWidget(ctx, s, kind, widgetdata.Identifier(siteFlag), defaultSite, cfg.Jetpack, observer)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return printJSON(results)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Read or write the session flags the widgets gate on",
}

var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Write the logged-in and Jetpack-disabled flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		state := widgetdata.SessionState{LoggedIn: loggedInFlag, JetpackFeaturesDisabled: disabledFlag}
		if err := widgetdata.WriteSession(ctx, s, state); err != nil {
			return err
		}
		logger.Info("session updated",
			slog.Bool("logged_in", state.LoggedIn),
			slog.Bool("jetpack_features_disabled", state.JetpackFeaturesDisabled),
		)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored session flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		state, err := widgetdata.NewStoreSessionSource(s).Session(ctx)
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached widget payloads",
}

var cachePutCmd = &cobra.Command{
	Use:   "put",
	Short: "Cache a payload read from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := widgetdata.ParseKind(widgetFlag)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}

		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		ttl := cfg.Cache.TTL
		if cmd.Flags().Changed("ttl") {
			ttl = ttlFlag
		}
		if err := putPayload(ctx, s, kind, siteFlag, data, ttl); err != nil {
			return err
		}
		logger.Info("payload cached", slog.String("widget", string(kind)), slog.String("site_id", siteFlag), slog.Duration("ttl", ttl))
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Evict a cached payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := widgetdata.ParseKind(widgetFlag)
		if err != nil {
			return err
		}
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()
		return deletePayload(ctx, s, kind, siteFlag)
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the widgets offered by the app variant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(widgetdata.Kinds(cfg.Jetpack))
	},
}

var brandingCmd = &cobra.Command{
	Use:   "branding",
	Short: "Print the Jetpack badge text for the current rollout phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		provider := branding.Provider{Phases: branding.FlagPhaseSource{Flags: s}}
		fmt.Println(provider.Text(ctx))
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&widgetFlag, "widget", "w", "", "widget kind (today, this_week, all_time, lock_screen)")
	resolveCmd.Flags().StringVarP(&siteFlag, "site", "s", "", "selected site id")
	resolveCmd.Flags().IntVar(&defaultSiteFlag, "default-site", 0, "default site id when none is selected")

	sessionSetCmd.Flags().BoolVar(&loggedInFlag, "logged-in", false, "whether the app is logged in")
	sessionSetCmd.Flags().BoolVar(&disabledFlag, "jetpack-disabled", false, "whether Jetpack features are disabled")
	sessionCmd.AddCommand(sessionSetCmd, sessionShowCmd)

	for _, c := range []*cobra.Command{cachePutCmd, cacheDeleteCmd} {
		c.Flags().StringVarP(&widgetFlag, "widget", "w", "", "widget kind")
		c.Flags().StringVarP(&siteFlag, "site", "s", "", "site id")
		c.MarkFlagRequired("widget")
		c.MarkFlagRequired("site")
	}
	cachePutCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "JSON payload file")
	cachePutCmd.Flags().DurationVar(&ttlFlag, "ttl", 0, "cache lifetime (default from config)")
	cachePutCmd.MarkFlagRequired("file")
	cacheCmd.AddCommand(cachePutCmd, cacheDeleteCmd)
}

func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
