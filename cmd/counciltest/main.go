// Command counciltest runs one clinical query through the full council
// pipeline against real vendor credentials from the environment. Seats
// without credentials fall back to the local heuristics, so it also
// doubles as a smoke test of the degraded path.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/carelink/clinical-core/cmd/mainconfig"
	appconfig "github.com/carelink/clinical-core/internal/config"
	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/redact"
	"github.com/carelink/clinical-core/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	input := "chest pain, shortness of breath"
	if len(os.Args) > 1 {
		input = strings.Join(os.Args[1:], " ")
	}

	providers := []council.Provider{
		council.LocalDiagnosisProvider{},
		council.LocalRiskProvider{},
		council.LocalNarrativeProvider{},
	}

	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			log.Fatalf("load aws config: %v", err)
		}
		bedrock, err := council.NewBedrockDiagnosisProvider(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			fmt.Printf("bedrock unavailable, keeping local diagnosis: %v\n", err)
		} else {
			providers[0] = bedrock
			fmt.Println("diagnosis seat: bedrock", cfg.BedrockModelID)
		}
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := council.NewGeminiNarrativeProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			fmt.Printf("gemini unavailable, keeping local narrative: %v\n", err)
		} else {
			defer gemini.Close()
			providers[2] = gemini
			fmt.Println("narrative seat: gemini", cfg.GeminiModelID)
		}
	}

	anonymized, entities := redact.Redact(input)
	fmt.Printf("input:      %s\n", input)
	fmt.Printf("anonymized: %s (%d entities removed)\n\n", anonymized, len(entities))

	orch := council.NewOrchestrator(cfg.ProviderTimeout, logger)
	results := orch.Invoke(ctx, providers, anonymized)
	for _, r := range results {
		status := "ok"
		if r.Fallback {
			status = fmt.Sprintf("fallback (%v)", r.Err)
		}
		fmt.Printf("  %-20s %-10s %-8s %v\n", r.Provider, r.Role, status, r.Elapsed.Round(time.Millisecond))
	}

	response := council.Synthesize(anonymized, results)
	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		log.Fatalf("marshal response: %v", err)
	}
	fmt.Printf("\n%s\n", out)
}
