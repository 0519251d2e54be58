package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Stepwall/internal/cli"
	"github.com/shaiso/Stepwall/internal/config"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
	"github.com/shaiso/Stepwall/internal/steps"
)

// newRegistry возвращает реестр со всеми шагами и provider'ами,
// но без инфраструктуры. Годится для проверки, не для запуска.
func newRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	providers.Register(reg, providers.Infra{})
	steps.Register(reg, nil)
	return reg
}

func newValidateCmd(outputFn func() *cli.Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Validate a config file without connecting to anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FromEnv().ConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			settings, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := engine.Check(settings, newRegistry()); err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("%s: %d steps, %d data providers", path, len(settings.Steps), len(settings.DataProviders)))
			return nil
		},
	}
}

type factoryInfo struct {
	Kind         string   `json:"kind"`
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities,omitempty"`
}

func newStepsCmd(outputFn func() *cli.Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List available steps and data providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newRegistry()

			var infos []factoryInfo
			for _, f := range reg.StepFactories() {
				infos = append(infos, factoryInfo{Kind: "step", ID: f.ID, Capabilities: capabilityNames(f.Requires)})
			}
			for _, f := range reg.ProviderFactories() {
				infos = append(infos, factoryInfo{Kind: "provider", ID: f.ID, Capabilities: capabilityNames(f.Provides)})
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				caps := strings.Join(info.Capabilities, ",")
				if caps == "" {
					caps = "-"
				}
				rows[i] = []string{info.Kind, info.ID, caps}
			}

			outputFn().Print([]string{"KIND", "ID", "CAPABILITIES"}, rows, infos)
			return nil
		},
	}
}

func capabilityNames(caps []engine.Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return names
}
