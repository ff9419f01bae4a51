package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"finspread/pkg/api/extraction"
	"finspread/pkg/core/agent"
	"finspread/pkg/core/pipeline"
	"finspread/pkg/core/spreader"
	"finspread/pkg/core/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx := context.Background()

	// Agent configuration (active agent + per-agent model overrides)
	agentCfg, err := agent.LoadConfig("config/agents.yaml")
	if err != nil {
		fmt.Printf("[WARNING] Agent config problem, using defaults: %v\n", err)
	}
	agentMgr := agent.NewManager(ctx, agentCfg)

	// Taxonomy: built-in mappings plus optional local extensions
	tax, err := loadTaxonomy()
	if err != nil {
		fmt.Printf("[FATAL] Taxonomy load failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[TAXONOMY] Loaded %d label mappings\n", tax.Size())

	// Database
	pool, err := store.Connect(ctx)
	if err != nil {
		fmt.Printf("[FATAL] Database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	st := store.NewStore(pool)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	orch := pipeline.NewOrchestrator(agentMgr, spreader.NewSpreader(tax), st)
	handler := extraction.NewHandler(st, agentMgr, orch, uploadDir)

	mux := http.NewServeMux()
	handler.Register(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/documents/upload")
	fmt.Println("  - GET  /api/documents")
	fmt.Println("  - POST /api/extract")
	fmt.Println("  - GET  /api/extractions/{document_id}")
	fmt.Println("  - GET  /api/progress/{document_id}")
	fmt.Println("  - GET  /api/agents")
	fmt.Println("  - GET  /health")

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// loadTaxonomy merges config/taxonomy_extensions.hjson into the
// built-in taxonomy when the file exists.
func loadTaxonomy() (*spreader.Taxonomy, error) {
	extensionsPath := "config/taxonomy_extensions.hjson"
	data, err := os.ReadFile(extensionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return spreader.LoadTaxonomy()
		}
		return nil, err
	}
	fmt.Printf("[TAXONOMY] Applying extensions from %s\n", extensionsPath)
	return spreader.LoadTaxonomyWithExtensions(data)
}
