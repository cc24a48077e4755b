package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"core-launchpad/internal/activity"
	"core-launchpad/internal/discovery"
	"core-launchpad/internal/domain"
	"core-launchpad/internal/units"
)

func newPresalesCmd(a *app) *cobra.Command {
	var status, order string
	cmd := &cobra.Command{
		Use:   "presales",
		Short: "List presales with status and progress",
		Long: `List every presale known to the PoolManager.

Examples:
  launchpad presales
  launchpad presales --status Live --order asc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := domain.ParseStatusFilter(status)
			if !ok {
				return fmt.Errorf("--status: unknown status %q", status)
			}
			ord, ok := discovery.ParseOrder(order)
			if !ok {
				return fmt.Errorf("--order: must be asc or desc")
			}

			tracker := discovery.New(discovery.Options{
				Reader:           a.reader(),
				FetchConcurrency: a.cfg.Tracker.FetchConcurrency,
				Logger:           a.logger,
			})
			snap, err := tracker.Refresh(cmd.Context(), discovery.TriggerManual)
			if err != nil {
				return err
			}

			entries := tracker.List(filter, ord)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title(fmt.Sprintf("Presales (%d of %d)", len(entries), len(snap.Presales))))
			if len(entries) == 0 {
				fmt.Fprintln(out, meta("no presales"))
				return nil
			}

			t := newTable(
				column{"#", 4},
				column{"POOL", 42},
				column{"TOKEN", 16},
				column{"STATUS", 15},
				column{"RAISED", 24},
				column{"PROGRESS", 8},
				column{"ENDS", 16},
			)
			t.styles[3] = statusStyle
			for _, e := range entries {
				t.addRow(
					strconv.Itoa(e.Index),
					e.PoolAddress.Hex(),
					e.Config.TokenName+" ("+e.Config.TokenSymbol+")",
					string(e.RealStatus(e.ObservedAt)),
					units.FormatEtherFixed(e.Stats.TotalContributed, 4)+" / "+units.FormatEtherFixed(e.Config.Hardcap, 2),
					strconv.Itoa(e.Progress)+"%",
					time.Unix(e.EndTime(), 0).UTC().Format("2006-01-02 15:04"),
				)
			}
			fmt.Fprint(out, t.render())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "All", "filter: All, Live, Coming Soon, Ended, Finalized")
	cmd.Flags().StringVar(&order, "order", "desc", "manager order: desc (newest first) or asc")
	return cmd
}

func newPositionsCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show a holder's presale positions",
		Long: `Show presales where the user holds tokens, with the action each one allows.

Without --user the configured wallet is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}

			holder := user
			if holder == "" {
				t, err := a.transactor(ctx)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("--user is required without a configured wallet")
				}
				holder = t.From.Hex()
			}
			account, err := parseAddress("user", holder)
			if err != nil {
				return err
			}

			positions, err := svc.Positions(ctx, account)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title("Positions of ")+addr(account.Hex()))
			if len(positions) == 0 {
				fmt.Fprintln(out, meta("no positions"))
				return nil
			}

			t := newTable(
				column{"POOL", 42},
				column{"TOKEN", 10},
				column{"BALANCE", 20},
				column{"STATUS", 26},
				column{"POOL BALANCE", 16},
				column{"ACTION", 12},
			)
			t.styles[3] = statusStyle
			for _, p := range positions {
				t.addRow(
					p.PoolAddress.Hex(),
					p.TokenSymbol,
					units.FormatEtherFixed(p.TokenBalance, 4),
					string(p.Status),
					units.FormatEtherFixed(p.PoolBalance, 4),
					positionAction(p),
				)
			}
			fmt.Fprint(out, t.render())
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "holder address")
	return cmd
}

// positionAction names the command a holder can run next.
func positionAction(p domain.Position) string {
	switch p.Status {
	case domain.PositionReadyToFinalize:
		if p.IsFinalizable {
			return "finalize"
		}
	case domain.PositionFailed:
		return "withdraw"
	case domain.PositionFinalized:
		return "swap"
	}
	return "-"
}

func newActivityCmd(a *app) *cobra.Command {
	var (
		pool  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent token transfers of a presale",
		RunE: func(cmd *cobra.Command, args []string) error {
			poolAddr, err := parseAddress("pool", pool)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.Activity.Limit
			}

			feed := activity.NewFeed(a.backend, a.logger)
			transfers, err := feed.ForPool(cmd.Context(), poolAddr, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title("Recent activity"))
			if len(transfers) == 0 {
				fmt.Fprintln(out, meta("no transfers"))
				return nil
			}

			t := newTable(
				column{"TYPE", 8},
				column{"AMOUNT", 20},
				column{"USER", 13},
				column{"TIME", 19},
				column{"TX", 13},
			)
			t.styles[0] = transferStyle
			for _, tr := range transfers {
				t.addRow(
					string(tr.Kind),
					units.FormatEtherFixed(tr.Amount, 4),
					shortAddr(tr.User.Hex()),
					time.UnixMilli(tr.Timestamp).UTC().Format("2006-01-02 15:04:05"),
					shortAddr(tr.TxHash.Hex()),
				)
			}
			fmt.Fprint(out, t.render())
			return nil
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of transactions (default activity.limit)")
	return cmd
}

func transferStyle(kind string) lipgloss.Style {
	switch domain.TransferKind(kind) {
	case domain.TransferBuy, domain.TransferMint:
		return styleSuccess
	case domain.TransferSell, domain.TransferBurn:
		return styleError
	}
	return styleMeta
}

func newQuoteCmd(a *app) *cobra.Command {
	var pool, side, amount string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a router swap for a listed presale token",
		Long: `Quote buying tokens with the native asset, or selling tokens for it.

Examples:
  launchpad quote --pool 0xPool --side buy --amount 0.5
  launchpad quote --pool 0xPool --side sell --amount 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, ok := domain.ParseSwapSide(side)
			if !ok {
				return fmt.Errorf("--side must be buy or sell")
			}
			poolAddr, err := parseAddress("pool", pool)
			if err != nil {
				return err
			}
			amountIn, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			swapper, err := a.swapper(ctx, false)
			if err != nil {
				return err
			}
			token, err := swapper.Token(ctx, poolAddr)
			if err != nil {
				return err
			}
			q, err := swapper.Quote(ctx, s, token, amountIn)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, title("Quote ("+string(s)+")"))
			fmt.Fprintf(out, "  in:       %s\n", units.FormatEther(q.AmountIn))
			fmt.Fprintf(out, "  out:      %s\n", units.FormatEther(q.AmountOut))
			fmt.Fprintf(out, "  min out:  %s %s\n", units.FormatEther(q.MinAmountOut),
				meta(fmt.Sprintf("(%d%% slippage)", a.cfg.Swap.SlippagePercent)))
			return nil
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&amount, "amount", "", "input amount")
	return cmd
}
