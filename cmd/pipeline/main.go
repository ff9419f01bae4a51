// Command pipeline runs the extraction pipeline on a local document
// and prints the result as JSON. No database required; useful for
// spot-checking a filing before uploading it.
//
// Usage:
//
//	go run ./cmd/pipeline -file filing.html [-agent gemini_archivist]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"finspread/pkg/core/agent"
	"finspread/pkg/core/pipeline"
	"finspread/pkg/core/spreader"
	"finspread/pkg/models"

	"github.com/joho/godotenv"
)

func main() {
	filePath := flag.String("file", "", "document to process (html or markdown)")
	agentType := flag.String("agent", "", "agent to analyze with (claude_specialist, gemini_archivist, deepseek_math, gpt_prophet)")
	extensions := flag.String("extensions", "", "optional taxonomy extensions hjson file")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *agentType != "" && !models.AgentType(*agentType).Valid() {
		log.Fatalf("unknown agent %q", *agentType)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	tax := spreader.DefaultTaxonomy()
	if *extensions != "" {
		data, err := os.ReadFile(*extensions)
		if err != nil {
			log.Fatalf("failed to read extensions: %v", err)
		}
		tax, err = spreader.LoadTaxonomyWithExtensions(data)
		if err != nil {
			log.Fatalf("failed to apply extensions: %v", err)
		}
	}

	info, err := os.Stat(*filePath)
	if err != nil {
		log.Fatalf("cannot stat %s: %v", *filePath, err)
	}

	ctx := context.Background()
	mgr := agent.NewManager(ctx, agent.Config{})
	orch := pipeline.NewOrchestrator(mgr, spreader.NewSpreader(tax), nil)

	doc := models.NewDocumentUpload(filepath.Base(*filePath), models.FileTypePDF, info.Size())
	doc.StoragePath = *filePath

	result, status, err := orch.Run(ctx, &doc, models.AgentType(*agentType))
	if err != nil {
		log.Fatalf("pipeline failed at %s: %v", status.Stage, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}
