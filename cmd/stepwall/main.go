// Stepwall — step engine для стены конференции.
//
// Один бинарник: serve запускает engine и admin API,
// остальные команды управляют работающим сервером через HTTP API.
//
// Использование:
//
//	stepwall [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	serve     Запустить engine и admin API
//	validate  Проверить файл конфигурации
//	steps     Показать доступные шаги и provider'ы
//	engine    Состояние engine, start/stop, последние кадры
//	tweet     Отправить сообщение на стену
//	slot      Управление расписанием
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Stepwall/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "stepwall",
		Short:         "Stepwall — step engine for conference walls",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8090", "Admin API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		newServeCmd(),
		newValidateCmd(outputFn),
		newStepsCmd(outputFn),
		cli.NewEngineCmd(clientFn, outputFn),
		cli.NewTweetCmd(clientFn, outputFn),
		cli.NewSlotCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
