package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/infrastructure/container"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const stopTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := fx.New(
				fx.Supply(container.ConfigPath(cfgFile)),
				container.Module,
			)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}

			select {
			case <-ctx.Done():
			case <-app.Done():
			}

			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			defer stopCancel()
			return app.Stop(stopCtx)
		},
	}
}

// runOnce starts the core graph, hands the populated targets to fn and stops
func runOnce(cmd *cobra.Command, fn func(ctx context.Context) error, targets ...interface{}) error {
	app := fx.New(
		fx.Supply(container.ConfigPath(cfgFile)),
		container.Core,
		fx.Populate(targets...),
	)

	startCtx, cancel := context.WithTimeout(cmd.Context(), stopTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <restaurant-id>",
		Short: "Score every active item of a restaurant and store the metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scoring inbound.ScoringService
			return runOnce(cmd, func(ctx context.Context) error {
				metrics, err := scoring.ScoreRestaurant(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, metrics)
			}, &scoring)
		},
	}
}

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <restaurant-id>",
		Short: "List candidates awaiting review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var optimizer inbound.OptimizationService
			return runOnce(cmd, func(ctx context.Context) error {
				pending, err := optimizer.ListPending(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, pending)
			}, &optimizer)
		},
	}
}

type signalFlags struct {
	ageGroups    []string
	genderGroups []string
	interests    []string
	style        string
	batchSize    int
	provider     string
	model        string
}

func (f *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.ageGroups, "age-groups", nil, "selected age groups, e.g. 25-34")
	cmd.Flags().StringSliceVar(&f.genderGroups, "genders", nil, "selected gender groups")
	cmd.Flags().StringSliceVar(&f.interests, "interests", nil, "selected interests")
	cmd.Flags().StringVar(&f.style, "style", "", "optimization style hint")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "concurrent model calls (default from config)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "model provider: openai, anthropic or google")
	cmd.Flags().StringVar(&f.model, "model", "", "model name (default per provider)")
}

func (f *signalFlags) selection() market.Selection {
	return market.Selection{
		AgeGroups:    f.ageGroups,
		GenderGroups: f.genderGroups,
		Interests:    f.interests,
	}
}

func (f *signalFlags) modelSelection() inbound.ModelSelection {
	return inbound.ModelSelection{Provider: f.provider, Model: f.model}
}

func newOptimizeCmd() *cobra.Command {
	var (
		flags    signalFlags
		itemIDs  []string
		audience string
	)

	cmd := &cobra.Command{
		Use:   "optimize <restaurant-id>",
		Short: "Rewrite menu items for the selected audience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var optimizer inbound.OptimizationService
			return runOnce(cmd, func(ctx context.Context) error {
				result, err := optimizer.OptimizeMenu(ctx, inbound.OptimizeMenuCommand{
					RestaurantID:         args[0],
					ItemIDs:              itemIDs,
					SelectedDemographics: flags.selection(),
					OptimizationStyle:    flags.style,
					TargetAudience:       audience,
					BatchSize:            flags.batchSize,
					ModelSelection:       flags.modelSelection(),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}, &optimizer)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&itemIDs, "items", nil, "item ids to optimize (default all active items)")
	cmd.Flags().StringVar(&audience, "audience", "", "free-text target audience")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var (
		flags    signalFlags
		count    int
		usePeers bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <restaurant-id>",
		Short: "Propose new dishes from demographic and peer signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var optimizer inbound.OptimizationService
			return runOnce(cmd, func(ctx context.Context) error {
				result, err := optimizer.GenerateSuggestions(ctx, inbound.GenerateSuggestionsCommand{
					RestaurantID:         args[0],
					SelectedDemographics: flags.selection(),
					UsePeerDishes:        usePeers,
					Count:                count,
					BatchSize:            flags.batchSize,
					OptimizationStyle:    flags.style,
					ModelSelection:       flags.modelSelection(),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}, &optimizer)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&count, "count", 0, "number of suggestions (default from config)")
	cmd.Flags().BoolVar(&usePeers, "peer-dishes", false, "include specialty dishes from peer restaurants")
	return cmd
}
