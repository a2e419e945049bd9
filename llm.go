package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"gopkg.in/yaml.v3"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

type LLMUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

const patternInstruction = `You are a QA manager in an FMCG factory analyzing customer complaints.
Identify clear patterns and insights from the customer complaint statistics below.
Focus on:
1. Which products and defect types appear most frequently?
2. Are there specific product-defect combinations that stand out?
3. Are certain production lines associated with more complaints?
4. What actionable insights can be derived from these patterns?

Provide your response in a concise, analytical format with clear recommendations.
Answer in Vietnamese.`

// knowledgeBase is optional domain context maintained by the QA team
// (defect taxonomy, line quirks, past incidents) appended to the system
// prompt so the analysis uses their vocabulary.
type knowledgeBase struct {
	Notes []string `yaml:"notes"`
}

func loadKnowledgeBase(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("knowledge base unavailable: %v", err)
		return ""
	}
	var kb knowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		log.Printf("knowledge base parse error: %v", err)
		return ""
	}
	if len(kb.Notes) == 0 {
		return ""
	}
	return "\n\nFactory context:\n- " + strings.Join(kb.Notes, "\n- ")
}

// AnalyzeComplaintPatterns asks the model for a short commentary on the
// run's aggregates. Failure is non-fatal; the report ships without it.
func AnalyzeComplaintPatterns(cfg Config, summary ComplaintSummary) (string, LLMUsage, error) {
	if !cfg.LLMConfigured() {
		return "", LLMUsage{}, nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Total complaints analyzed: %d (matched to QA: %d, unmatched: %d)\n\n", summary.TotalComplaints, summary.Matched, summary.Unmatched)
	writeCountContext(&prompt, "Top products by complaint count", summary.ByProduct)
	writeCountContext(&prompt, "Top defect types", summary.TopDefects)
	writeCountContext(&prompt, "Top production lines with complaints", summary.ByLine)
	if len(summary.Unusual) > 0 {
		prompt.WriteString("Unusual product-defect combinations (observed vs expected):\n")
		for _, u := range summary.Unusual {
			fmt.Fprintf(&prompt, "- %s / %s: observed %d, expected %.1f\n", u.A, u.B, u.Observed, u.Expected)
		}
	}

	model := cfg.LLMModel
	if model == "" {
		model = defaultAnthropicModel
	}
	system := patternInstruction + loadKnowledgeBase(cfg.KnowledgeBasePath)
	return callAnthropic(cfg.AnthropicAPIKey, model, system, prompt.String())
}

func writeCountContext(b *strings.Builder, title string, counts []CategoryCount) {
	if len(counts) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, c := range counts {
		fmt.Fprintf(b, "- %s: %d\n", c.Value, c.Count)
	}
	b.WriteString("\n")
}

func callAnthropic(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", LLMUsage{}, fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := LLMUsage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d cache_create=%d cache_read=%d",
				len(block.Text), usage.InputTokens, usage.OutputTokens, usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}
