package main

// One-shot rooftop analysis from the command line:
//   go run ./cmd/analyze -image roof.png
//   go run ./cmd/analyze -lat 12.97 -lon 77.59 -roof-area 120

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"solar-backend/internal/analyses"
	"solar-backend/internal/llm"
	"solar-backend/internal/llm/gemini"
	"solar-backend/internal/llm/openai"
	"solar-backend/internal/shared/config"
	"solar-backend/internal/shared/storage/object/local"
	"solar-backend/internal/sites"
)

func main() {
	imagePath := flag.String("image", "", "path to a rooftop image")
	lat := flag.Float64("lat", 0, "latitude of the site")
	lon := flag.Float64("lon", 0, "longitude of the site")
	roofArea := flag.Float64("roof-area", 0, "approximate roof area in m2")
	buildingType := flag.String("building-type", "", "building type, e.g. residential")
	roofType := flag.String("roof-type", "", "roof type, e.g. flat")
	floors := flag.Int("floors", 0, "number of floors")
	roofAccess := flag.String("roof-access", "", "roof accessibility")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline for the analysis")
	flag.Parse()

	hasImage := *imagePath != ""
	hasCoords := isFlagSet("lat") && isFlagSet("lon")
	if hasImage == hasCoords {
		log.Fatalf("provide either -image or both -lat and -lon")
	}
	if hasCoords && (*lat < -90 || *lat > 90 || *lon < -180 || *lon > 180) {
		log.Fatalf("latitude must be in [-90, 90] and longitude in [-180, 180]")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		log.Fatalf("llm client: %v", err)
	}

	workDir, err := os.MkdirTemp("", "solar-analyze-")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(workDir)

	store := local.New(workDir)
	siteRepo := sites.NewMemoryRepo()
	analysisRepo := analyses.NewMemoryRepo()

	const userID = "cli"
	site := sites.Site{
		ID:           uuid.NewString(),
		UserID:       userID,
		RoofAreaM2:   *roofArea,
		BuildingType: *buildingType,
		RoofType:     *roofType,
		Floors:       *floors,
		RoofAccess:   *roofAccess,
		CreatedAt:    time.Now().UTC(),
	}

	if hasImage {
		f, err := os.Open(*imagePath)
		if err != nil {
			log.Fatalf("open image: %v", err)
		}
		storageKey, size, mimeType, saveErr := store.Save(ctx, userID, filepath.Base(*imagePath), f)
		f.Close()
		if saveErr != nil {
			log.Fatalf("stage image: %v", saveErr)
		}
		site.Kind = sites.KindImage
		site.FileName = filepath.Base(*imagePath)
		site.MimeType = mimeType
		site.SizeBytes = size
		site.StorageKey = storageKey
	} else {
		site.Kind = sites.KindCoordinates
		site.Latitude = lat
		site.Longitude = lon
	}

	if err := siteRepo.Create(ctx, site); err != nil {
		log.Fatalf("record site: %v", err)
	}

	svc := &analyses.Service{
		Repo:        analysisRepo,
		SitesRepo:   siteRepo,
		Store:       store,
		LLM:         llmClient,
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		Bounds:      analyses.BoundsFromEnv(),
		MaxAttempts: cfg.LLMMaxAttempts,
		RetryDelay:  cfg.LLMRetryDelay,
	}

	analysis, err := svc.Create(ctx, site.ID, userID)
	if err != nil {
		log.Fatalf("start analysis: %v", err)
	}

	result, err := waitForAnalysis(ctx, analysisRepo, analysis.ID)
	if err != nil {
		log.Fatalf("analysis: %v", err)
	}

	if result.Status == analyses.StatusFailed {
		fmt.Fprintf(os.Stderr, "analysis failed: %s: %s (retryable=%t)\n", result.ErrorCode, result.ErrorMessage, result.ErrorRetryable)
		os.Exit(1)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	out, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Println(string(out))
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	}
}

func waitForAnalysis(ctx context.Context, repo analyses.Repo, analysisID string) (analyses.Analysis, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		analysis, err := repo.GetByID(context.Background(), analysisID)
		if err != nil {
			return analyses.Analysis{}, err
		}
		if analysis.Status == analyses.StatusCompleted || analysis.Status == analyses.StatusFailed {
			return analysis, nil
		}
		select {
		case <-ctx.Done():
			return analyses.Analysis{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
