package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "wallst/internal/cli"
	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/market"
)

func newRemoteCmd(cfg *config.CLIConfig) *cobra.Command {
	apiBase := cfg.APIBaseURL
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Drive a game hosted by wallst-api",
	}
	remote.PersistentFlags().StringVar(&apiBase, "api", apiBase, "wallst-api base URL")

	client := func() *cl.Client {
		return cl.NewClient(strings.TrimSpace(apiBase))
	}
	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), 30*time.Second)
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "Start a new hosted game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modeFlag, _ := cmd.Flags().GetString("mode")
			year, _ := cmd.Flags().GetInt("year")
			cash, _ := cmd.Flags().GetFloat64("cash")
			mode, ok := market.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("mode must be HISTORICAL or RANDOM")
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			v, err := client().Start(ctx, mode, year, cash)
			if err != nil {
				return err
			}
			renderState(v.State)
			return nil
		},
	}
	start.Flags().String("mode", string(market.ModeHistorical), "HISTORICAL or RANDOM")
	start.Flags().Int("year", 2000, "start year")
	start.Flags().Float64("cash", 0, "starting cash (server default when 0)")

	remote.AddCommand(
		start,
		stateCommand("state", "Show cash, portfolio and latest messages", func(ctx context.Context, c *cl.Client) (cl.StateView, error) {
			return c.State(ctx)
		}, client, withTimeout),
		&cobra.Command{
			Use:   "market",
			Short: "List instruments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				v, err := client().State(ctx)
				if err != nil {
					return err
				}
				renderMarket(v.State)
				return nil
			},
		},
		orderCommand("buy", client, withTimeout),
		orderCommand("sell", client, withTimeout),
		&cobra.Command{
			Use:   "licenses",
			Short: "List exchange licenses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				c := client()
				licenses, err := c.Licenses(ctx)
				if err != nil {
					return err
				}
				costs := make(map[market.Group]float64, len(licenses))
				var st game.GameState
				for _, l := range licenses {
					costs[l.Group] = l.Cost
					if l.Unlocked {
						st.Unlocked = append(st.Unlocked, l.Group)
					}
				}
				renderLicenses(st, costs)
				return nil
			},
		},
		&cobra.Command{
			Use:   "unlock GROUP",
			Short: "Buy an exchange license",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				v, err := client().Unlock(ctx, market.Group(strings.ToUpper(args[0])))
				renderMessages(v.State.Messages, 1)
				return err
			},
		},
		&cobra.Command{
			Use:   "tip",
			Short: "Buy an insider tip",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				tip, _, err := client().Tip(ctx)
				if err != nil {
					return err
				}
				printWarn(tip)
				return nil
			},
		},
		&cobra.Command{
			Use:   "advance [days]",
			Short: "Step the hosted game forward",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				days := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("days must be a positive whole number")
					}
					days = n
				}
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				v, err := client().Advance(ctx, days)
				if err != nil {
					return err
				}
				renderState(v.State)
				return nil
			},
		},
		stateCommand("toggle", "Play or pause", func(ctx context.Context, c *cl.Client) (cl.StateView, error) {
			return c.Toggle(ctx)
		}, client, withTimeout),
		stateCommand("resume", "Resume the saved hosted game", func(ctx context.Context, c *cl.Client) (cl.StateView, error) {
			return c.Resume(ctx)
		}, client, withTimeout),
		&cobra.Command{
			Use:   "speed TIER",
			Short: "Set speed: slow, normal or fast",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				v, err := client().SetSpeed(ctx, args[0])
				if err != nil {
					return err
				}
				printSuccess("Speed set to " + v.State.Speed.String() + " per day")
				return nil
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "End the hosted game and record the score",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				res, err := client().End(ctx)
				if err != nil {
					return err
				}
				renderSummary(res.Summary)
				return nil
			},
		},
		&cobra.Command{
			Use:   "scores",
			Short: "Show hosted high scores",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				scores, err := client().Scores(ctx)
				if err != nil {
					return err
				}
				renderScores(scores)
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Follow the hosted game live",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				last := ""
				err := client().Watch(ctx, func(v cl.StateView) error {
					if len(v.State.Messages) > 0 && v.State.Messages[0] != last {
						last = v.State.Messages[0]
						renderMessages(v.State.Messages, 1)
					}
					fmt.Printf("\r%s  net worth %s   ", v.State.Date.Format("2006-01-02"), formatMoney(v.NetWorth))
					return nil
				})
				fmt.Println()
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			},
		},
	)
	return remote
}

func stateCommand(use, short string, call func(context.Context, *cl.Client) (cl.StateView, error), client func() *cl.Client, withTimeout func(*cobra.Command) (context.Context, context.CancelFunc)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			v, err := call(ctx, client())
			if err != nil {
				return err
			}
			renderState(v.State)
			return nil
		},
	}
}

func orderCommand(side string, client func() *cl.Client, withTimeout func(*cobra.Command) (context.Context, context.CancelFunc)) *cobra.Command {
	return &cobra.Command{
		Use:   side + " SYMBOL [QTY]",
		Short: strings.ToUpper(side[:1]) + side[1:] + " shares",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var qty int64
			if len(args) == 2 {
				n, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("quantity must be a whole number")
				}
				qty = n
			} else {
				n, err := promptInt64("Shares to "+side, 1)
				if err != nil {
					return err
				}
				qty = n
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			v, err := client().PlaceOrder(ctx, strings.ToUpper(args[0]), side, qty)
			if len(v.State.Messages) > 0 {
				renderMessages(v.State.Messages, 1)
			}
			return err
		},
	}
}
