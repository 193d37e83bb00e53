package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/bootstrap"
	"marketplace/internal/services/marketplace"
	"marketplace/pkg/templates"
)

var (
	inputFile      string
	outputFormat   string
	messageContext string
)

// suggestCmd prices items read as JSON
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a price for one item or a batch",
	Long: `Reads a JSON price request, or a JSON array of them, from --file or stdin.

Example:
  echo '{"title":"iPhone 12","category":"Mobile","brand":"Apple","condition":"Good",
         "age_months":24,"asking_price":35000,"location":"Mumbai"}' | marketplace suggest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeIn, err := openInput(inputFile)
		if err != nil {
			return err
		}
		defer closeIn()

		svc, shutdown := newService()
		defer shutdown()
		return runSuggest(cmd.Context(), svc, in, cmd.OutOrStdout(), outputFormat)
	},
}

// moderateCmd classifies a message given as arguments, or a batch read as JSON
var moderateCmd = &cobra.Command{
	Use:   "moderate [message]",
	Short: "Moderate a chat message or a batch",
	Long: `Moderates the message given as arguments. Without arguments a JSON array
of {"message", "context"} objects is read from --file or stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, shutdown := newService()
		defer shutdown()

		if len(args) > 0 {
			req := moderation.Request{Message: strings.Join(args, " "), Context: messageContext}
			return runModerate(cmd.Context(), svc, req, cmd.OutOrStdout())
		}

		in, closeIn, err := openInput(inputFile)
		if err != nil {
			return err
		}
		defer closeIn()

		return runBatchModerate(cmd.Context(), svc, in, cmd.OutOrStdout())
	},
}

func init() {
	suggestCmd.Flags().StringVarP(&inputFile, "file", "f", "", "JSON input file (default stdin)")
	suggestCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json or text")

	moderateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "JSON batch input file (default stdin)")
	moderateCmd.Flags().StringVar(&messageContext, "context", "", "Conversation context for the message")
}

// agentService is what the one-shot commands need from the application service
type agentService interface {
	SuggestPrice(ctx context.Context, req pricing.Request) pricing.Result
	ModerateMessage(ctx context.Context, req moderation.Request) (*moderation.Result, error)
	BatchSuggest(ctx context.Context, items []marketplace.PriceInput) marketplace.BatchResult[pricing.Result]
	BatchModerate(ctx context.Context, items []marketplace.ModerationInput) marketplace.BatchResult[moderation.Result]
}

// newService builds the core container; shutdown flushes pending decision
// events and closes connections
func newService() (agentService, func()) {
	container := bootstrap.NewContainer()
	container.MustInitCore()
	return container.Application.Service, container.Shutdown
}

func runSuggest(ctx context.Context, svc agentService, in io.Reader, out io.Writer, format string) error {
	payload, err := io.ReadAll(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '[' {
		var items []marketplace.PriceInput
		if err := json.Unmarshal(payload, &items); err != nil {
			return fmt.Errorf("decode batch: %w", err)
		}
		return writeJSON(out, svc.BatchSuggest(ctx, items))
	}

	var item marketplace.PriceInput
	if err := json.Unmarshal(payload, &item); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	req, err := item.Request()
	if err != nil {
		return err
	}

	result := svc.SuggestPrice(ctx, req)
	if format == "text" {
		return writeSuggestionText(out, req, result)
	}
	return writeJSON(out, result)
}

func runModerate(ctx context.Context, svc agentService, req moderation.Request, out io.Writer) error {
	result, err := svc.ModerateMessage(ctx, req)
	if err != nil {
		return fmt.Errorf("moderation failed, hold the message for review: %w", err)
	}
	return writeJSON(out, result)
}

func runBatchModerate(ctx context.Context, svc agentService, in io.Reader, out io.Writer) error {
	var items []marketplace.ModerationInput
	if err := json.NewDecoder(in).Decode(&items); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}
	return writeJSON(out, svc.BatchModerate(ctx, items))
}

func writeSuggestionText(out io.Writer, req pricing.Request, result pricing.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s, %s)\n", req.Title, req.Brand, req.Condition)
	fmt.Fprintf(&b, "Asking:     %s\n", templates.Rupees(req.AskingPrice))
	fmt.Fprintf(&b, "Suggested:  %s - %s\n",
		templates.Rupees(float64(result.SuggestedPriceRange.Min)),
		templates.Rupees(float64(result.SuggestedPriceRange.Max)))
	fmt.Fprintf(&b, "Position:   %s\n", result.MarketPosition)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", result.Confidence*100)
	fmt.Fprintf(&b, "Source:     %s\n", result.Tier)
	if result.FraudAnalysis != nil {
		fmt.Fprintf(&b, "Fraud risk: %s (%.2f)\n", result.FraudAnalysis.RiskLevel, result.FraudAnalysis.FraudScore)
	}
	fmt.Fprintf(&b, "\n%s\n", result.Reasoning)
	for _, r := range result.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", r)
	}

	_, err := io.WriteString(out, b.String())
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
