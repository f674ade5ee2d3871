// commands.go -- cobra CLI: serve (default), routes, config get, cache flush.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/MGallo-Code/vitrine/internal/config"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/store"
	"github.com/spf13/cobra"
)

// cli carries state shared by all subcommands.
type cli struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "vitrine",
		Short:         "Marketing site with a protected contact form",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load()
		},
		RunE: c.serve,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file read before the environment (optional)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server until SIGINT/SIGTERM",
			Args:  cobra.NoArgs,
			RunE:  c.serve,
		},
		c.routesCmd(),
		c.configCmd(),
		c.cacheCmd(),
	)
	return root
}

// load reads configuration and installs the logger.
func (c *cli) load() error {
	cfg, err := config.LoadConfig(c.envFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	setupLogging(cfg)
	return nil
}

func (c *cli) serve(cmd *cobra.Command, _ []string) error {
	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return run(ctx, c.cfg, nil, nil)
}

func (c *cli) routesCmd() *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table, or the route a path matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := route.Site()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("match") {
				m := t.Match(match)
				if m == nil {
					return fmt.Errorf("no route matches %q", match)
				}
				fmt.Fprintf(out, "%s\ttype=%s auth=%s", m.Name, m.Props.Type, m.Props.Auth)
				keys := make([]string, 0, len(m.Params))
				for k := range m.Params {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, " %s=%s", k, m.Params[k])
				}
				fmt.Fprintln(out)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH\tTYPE\tAUTH")
			for _, d := range t.Routes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Path, d.Props.Type, d.Props.Auth)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "path to classify, e.g. /contact?x=1")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print a dotted configuration key such as csrf.cookieName",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := c.cfg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown configuration key %q (known: %s)", args[0], strings.Join(config.Keys(), ", "))
			}
			if list, isList := v.([]string); isList {
				v = strings.Join(list, ",")
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis page cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush [PATTERN]",
		Short: "Delete cached keys matching PATTERN (default page:*)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "page:*"
			if len(args) == 1 {
				pattern = args[0]
			}
			n, err := c.flush(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d keys matching %q\n", n, pattern)
			return nil
		},
	})
	return cmd
}

func (c *cli) flush(ctx context.Context, pattern string) (int, error) {
	if c.cfg.RedisURL == "" {
		return 0, fmt.Errorf("cache flush: %w (REDIS_URL not set)", store.ErrCacheDisabled)
	}
	rs, err := store.NewRedisStore(ctx, c.cfg.RedisURL)
	if err != nil {
		return 0, err
	}
	defer rs.Close()
	return rs.DeleteByPattern(ctx, pattern)
}
