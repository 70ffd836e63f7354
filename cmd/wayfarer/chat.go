package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfarerhq/wayfarer/ai"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: `Interactive travel chat; type "exit" to quit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
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
		pipeline.Warmup(ctx)

		fmt.Println(`Wayfarer travel chat. Ask about a destination, type "exit" to quit.`)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
				fmt.Println("Safe travels!")
				return nil
			}

			answer, err := pipeline.Answer(ctx, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			printAnswer(answer)
			fmt.Println()
		}
	},
}
