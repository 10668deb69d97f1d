package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/display"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/scorer"
	"proteinrank-go-worker/structs"
	"proteinrank-go-worker/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tierPrinters = map[enums.Tier]*color.Color{
	enums.TierLow:    color.New(color.FgRed, color.Bold),
	enums.TierMedium: color.New(color.FgHiBlue, color.Bold),
	enums.TierHigh:   color.New(color.FgGreen, color.Bold),
}

func runScore(cmd *cobra.Command, args []string) error {
	input := structs.NutrientInput{
		Protein:       scorer.Normalize(scoreProtein),
		Fat:           scorer.Normalize(scoreFat),
		Carbohydrates: scorer.Normalize(scoreCarbohydrates),
		Fiber:         scorer.Normalize(scoreFiber),
	}
	renderScore(cmd.OutOrStdout(), scorer.View(scorer.Evaluate(input)))
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	envService := utils.EnvService{ConfigPath: configPath}
	envService.InitEnv()

	config := utils.EnvConfig.Lookup
	client := lookup.NewClient(config)

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	product, err := client.Lookup(ctx, args[0])
	if errors.Is(err, lookup.ErrUnknownBarcode) {
		fmt.Fprintln(cmd.OutOrStdout(), enums.UnknownFood)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", enums.FailedMessage, err)
	}

	renderProduct(cmd.OutOrStdout(), display.NewProductView(product))
	return nil
}

func tierString(tier enums.Tier) string {
	if printer, ok := tierPrinters[tier]; ok {
		return printer.Sprint(tier)
	}
	return string(tier)
}

func renderScore(w io.Writer, view structs.ScoreView) {
	fmt.Fprintf(w, "Score: %s  Tier: %s\n", view.Score, tierString(view.Tier))
}

func renderProduct(w io.Writer, view structs.ProductView) {
	fmt.Fprintln(w, view.ProductName)
	renderScore(w, structs.ScoreView{Score: view.Score, Tier: view.Tier, TierColor: view.TierColor})
	fmt.Fprintf(w, "  %-14s %gg\n", "Protein", view.Proteins100g)
	fmt.Fprintf(w, "  %-14s %gg\n", "Fat", view.Fat100g)
	fmt.Fprintf(w, "  %-14s %gg\n", "Carbohydrates", view.Carbohydrates100g)
	fmt.Fprintf(w, "  %-14s %gg\n", "Fiber", view.Fiber100g)
	if view.ServingDescriptor != "" {
		fmt.Fprintf(w, "  %s\n", view.ServingDescriptor)
	}
}
