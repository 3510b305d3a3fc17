package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/model"
)

var (
	flagAskMunicipality string
	flagAskUF           string
)

var errNoAPIKey = errors.New("no Anthropic API key: set ANTHROPIC_API_KEY or run `fundeb setup`")

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant about FUNDEB rules or a municipality",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var explainCmd = &cobra.Command{
	Use:   "explain <code|name>",
	Short: "Step-by-step explanation of a municipality's complements",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplain,
}

func init() {
	askCmd.Flags().StringVarP(&flagAskMunicipality, "municipality", "m", "", "Municipality code or name to add as context")
	askCmd.Flags().StringVar(&flagAskUF, "uf", "", "Restrict name lookup to a state")
	explainCmd.Flags().StringVar(&flagAskUF, "uf", "", "Restrict name lookup to a state")
	addRealNationalFlag(askCmd, explainCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(explainCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	cfg, cat, eng, err := loadAll()
	if err != nil {
		return err
	}
	client := newAssistant(cfg, eng)
	if client == nil {
		return errNoAPIKey
	}

	var result *model.AllocationResult
	if flagAskMunicipality != "" {
		m, err := cat.Resolve(flagAskMunicipality, flagAskUF)
		if err != nil {
			return err
		}
		r := eng.ComputeWith(m, nationalTotals(eng, cat, flagRealNational))
		result = &r
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	progressf("  Consultando %s...\n", client.Model())
	reply, err := client.Ask(ctx, strings.Join(args, " "), result, nil)
	if err != nil {
		return err
	}
	printReply(reply)
	return nil
}

func runExplain(_ *cobra.Command, args []string) error {
	cfg, cat, eng, err := loadAll()
	if err != nil {
		return err
	}
	client := newAssistant(cfg, eng)
	if client == nil {
		return errNoAPIKey
	}

	m, err := cat.Resolve(strings.Join(args, " "), flagAskUF)
	if err != nil {
		return err
	}
	result := eng.ComputeWith(m, nationalTotals(eng, cat, flagRealNational))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	progressf("  Explicando %s (%s) com %s...\n", result.Municipality, result.UF, client.Model())
	reply, err := client.Explain(ctx, result)
	if err != nil {
		return err
	}
	printReply(reply)
	return nil
}

func printReply(r assistant.Reply) {
	fmt.Println()
	fmt.Println(r.Text)
	fmt.Println()
	progressf("  %s\n", cli.RenderMuted(fmt.Sprintf("%s · %d tokens de entrada · %d de saída",
		r.Model, r.Usage.InputTokens, r.Usage.OutputTokens)))
}
