package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect the available providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered providers",
	Args:  cobra.NoArgs,
	RunE:  runProvidersList,
}

var providersDetectCmd = &cobra.Command{
	Use:   "detect <url>",
	Short: "Show which provider handles a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersDetect,
}

var providersInfoCmd = &cobra.Command{
	Use:   "info <provider-id>",
	Short: "Show a provider's auth fields, parameters and field mapping",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersInfo,
}

func init() {
	providersCmd.AddCommand(providersListCmd, providersDetectCmd, providersInfoCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("%-14s %-14s %-6s %s\n", "ID", "Name", "Type", "URL patterns")
	fmt.Println(strings.Repeat("─", 70))
	for _, d := range a.registry.Descriptors() {
		fmt.Printf("%-14s %-14s %-6s %s\n", d.ID, d.Name, d.Type, strings.Join(d.Patterns, "  "))
	}
	return nil
}

func runProvidersDetect(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println(a.registry.ResolveFromURL(args[0]))
	return nil
}

func runProvidersInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), appOptions{console: io.Discard})
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.registry.Instance(args[0])
	if p == nil {
		return fmt.Errorf("provider %q is not available", args[0])
	}
	info := p.Info()

	fmt.Printf("%s (%s, %s)\n", info.Name, info.ID, info.Type)
	if len(info.AuthFields) > 0 {
		fmt.Println("\nAuth fields:")
		for _, f := range info.AuthFields {
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Printf("  %-16s %s%s\n", f.Key, f.Label, req)
			if f.Description != "" {
				fmt.Printf("  %-16s %s\n", "", f.Description)
			}
		}
	}
	if len(info.Params) > 0 {
		fmt.Println("\nParameters:")
		for _, p := range info.Params {
			line := fmt.Sprintf("  %-16s %-6s", p.Key, p.Kind)
			if p.Default != nil {
				line += fmt.Sprintf(" default=%v", p.Default)
			}
			switch {
			case p.Max != 0:
				line += fmt.Sprintf(" range=%d..%d", p.Min, p.Max)
			case p.Min != 0:
				line += fmt.Sprintf(" min=%d", p.Min)
			}
			fmt.Println(line)
			if p.Description != "" {
				fmt.Printf("  %-16s %s\n", "", p.Description)
			}
		}
	}
	if len(info.FieldMapping) > 0 {
		fmt.Println("\nField mapping:")
		keys := make([]string, 0, len(info.FieldMapping))
		for k := range info.FieldMapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-16s <- %s\n", k, info.FieldMapping[k])
		}
	}
	return nil
}
