package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/presale"
	"core-launchpad/internal/units"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		name, symbol                         string
		rate                                 int64
		softcap, hardcap                     string
		start, end                           string
		image, description, website, tg, twt string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a presale and record its metadata",
		Long: `Create a presale through the PoolManager. The listing rate is 80% of the
presale rate; refunds are enabled.

Times are RFC3339 or offsets from now.

Examples:
  launchpad create --name "Core Cat" --symbol CCAT --rate 1000 \
    --softcap 5 --hardcap 10 --start +10m --end +48h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			now := a.now()
			startAt, err := parseWhen("start", start, now)
			if err != nil {
				return err
			}
			endAt, err := parseWhen("end", end, now)
			if err != nil {
				return err
			}
			soft, err := parseAmount("softcap", softcap)
			if err != nil {
				return err
			}
			hard, err := parseAmount("hardcap", hardcap)
			if err != nil {
				return err
			}

			params := presale.CreateParams{
				TokenName:   name,
				TokenSymbol: symbol,
				PresaleRate: big.NewInt(rate),
				Softcap:     soft,
				Hardcap:     hard,
				StartTime:   startAt,
				EndTime:     endAt,
				ImageURL:    image,
				Description: description,
				Website:     website,
				Telegram:    tg,
				Twitter:     twt,
			}
			if err := params.Validate(now); err != nil {
				return err
			}

			t, err := a.requireTransactor(ctx)
			if err != nil {
				return err
			}
			store, persistent, err := a.metadataStore(ctx)
			if err != nil {
				return err
			}

			created, err := presale.NewCreator(a.reader(), t, store, a.wait, a.logger).Create(ctx, params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, success("Presale created"))
			fmt.Fprintf(out, "  pool: %s\n", addr(created.PoolAddress.Hex()))
			fmt.Fprintf(out, "  tx:   %s\n", meta(created.TxHash.Hex()))
			switch {
			case created.Metadata == nil:
				fmt.Fprintln(out, warn("metadata was not saved"))
			case !persistent:
				fmt.Fprintln(out, warn("metadata kept in memory only; configure postgres.dsn to persist it"))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "token name")
	f.StringVar(&symbol, "symbol", "", "token symbol")
	f.Int64Var(&rate, "rate", 0, "presale rate, tokens per native unit")
	f.StringVar(&softcap, "softcap", "", "soft cap")
	f.StringVar(&hardcap, "hardcap", "", "hard cap")
	f.StringVar(&start, "start", "", "start time")
	f.StringVar(&end, "end", "", "end time")
	f.StringVar(&image, "image-url", "", "logo URL")
	f.StringVar(&description, "description", "", "project description")
	f.StringVar(&website, "website", "", "project website")
	f.StringVar(&tg, "telegram", "", "telegram link")
	f.StringVar(&twt, "twitter", "", "twitter link")
	return cmd
}

func newContributeCmd(a *app) *cobra.Command {
	var pool, amount string
	cmd := &cobra.Command{
		Use:   "contribute",
		Short: "Contribute native currency to a live presale",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poolAddr, err := parseAddress("pool", pool)
			if err != nil {
				return err
			}
			value, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			return a.send(ctx, cmd.OutOrStdout(), "Contributed "+units.FormatEther(value),
				func(svc *presale.Service) (*types.Receipt, error) {
					return svc.Contribute(ctx, poolAddr, value)
				})
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to contribute")
	return cmd
}

func newFinalizeCmd(a *app) *cobra.Command {
	var pool string
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize an ended presale that reached its soft cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poolAddr, err := parseAddress("pool", pool)
			if err != nil {
				return err
			}
			return a.send(ctx, cmd.OutOrStdout(), "Presale finalized",
				func(svc *presale.Service) (*types.Receipt, error) {
					return svc.Finalize(ctx, poolAddr)
				})
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	return cmd
}

func newWithdrawCmd(a *app) *cobra.Command {
	var pool string
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw a contribution from a failed presale",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poolAddr, err := parseAddress("pool", pool)
			if err != nil {
				return err
			}
			return a.send(ctx, cmd.OutOrStdout(), "Withdrawal complete",
				func(svc *presale.Service) (*types.Receipt, error) {
					return svc.ExpressWithdrawal(ctx, poolAddr)
				})
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	return cmd
}

// send runs a presale write and prints its receipt.
func (a *app) send(ctx context.Context, out io.Writer, done string, fn func(*presale.Service) (*types.Receipt, error)) error {
	svc, err := a.service(ctx, true)
	if err != nil {
		return err
	}
	receipt, err := fn(svc)
	if err != nil {
		return err
	}
	printReceipt(out, done, receipt)
	return nil
}

func printReceipt(out io.Writer, done string, receipt *types.Receipt) {
	fmt.Fprintln(out, success(done))
	fmt.Fprintf(out, "  tx:    %s\n", meta(receipt.TxHash.Hex()))
	if receipt.BlockNumber != nil {
		fmt.Fprintf(out, "  block: %s\n", receipt.BlockNumber)
	}
}

func newSwapCmd(a *app) *cobra.Command {
	var pool, side, amount string
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Buy or sell a finalized presale token through the router",
		Long: `Swap against the router. Selling approves the router first when the
allowance is short and waits until the approval is visible.

Examples:
  launchpad swap --pool 0xPool --side buy --amount 0.5
  launchpad swap --pool 0xPool --side sell --amount 1000`,
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
			swapper, err := a.swapper(ctx, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if s == domain.SwapSideBuy {
				res, err := swapper.Buy(ctx, poolAddr, amountIn)
				if err != nil {
					return err
				}
				printReceipt(out, fmt.Sprintf("Bought at least %s tokens", units.FormatEther(res.Quote.MinAmountOut)), res.Receipt)
				return nil
			}

			res, err := swapper.Sell(ctx, poolAddr, amountIn)
			if err != nil {
				return err
			}
			if res.Approved {
				fmt.Fprintln(out, meta("router approved"))
			}
			printReceipt(out, fmt.Sprintf("Sold for at least %s", units.FormatEther(res.Quote.MinAmountOut)), res.Receipt)
			return nil
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "presale pool address")
	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&amount, "amount", "", "input amount")
	return cmd
}

