package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfarerhq/wayfarer/ai"
	"github.com/wayfarerhq/wayfarer/ai/metrics"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single travel question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		pipeline, err := ai.NewService(ai.NewConfigFromProfile(instanceProfile), storeInstance)
		if err != nil {
			return err
		}

		answer, err := pipeline.Answer(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		printAnswer(answer)
		return nil
	},
}

func printAnswer(answer *ai.Answer) {
	fmt.Println(answer.Text)
	switch answer.Outcome {
	case metrics.OutcomeCacheHit:
		fmt.Printf("\n(cached answer, similarity %.3f)\n", answer.Similarity)
	case metrics.OutcomeDegraded:
		fmt.Println("\n(no saved travel context matched; answered from general knowledge)")
	}
}
