package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Skufu/HepatoScan/internal/artifact"
	"github.com/Skufu/HepatoScan/internal/catalog"
	"github.com/Skufu/HepatoScan/internal/diagnosis"
	"github.com/Skufu/HepatoScan/internal/model"
	"github.com/Skufu/HepatoScan/internal/web"
)

const (
	sourceFile     = "file"
	sourcePostgres = "postgres"
)

type Config struct {
	Port            string
	ArtifactSource  string
	ArtifactDir     string
	ScalerArtifact  string
	ModelArtifact   string
	DatabaseURL     string
	CategoriesFile  string
	ONNXLibraryPath string
	AllowOrigins    []string
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatalf("artifact source: %v", err)
	}
	defer closeSource()

	predictor, cat, err := loadArtifacts(ctx, cfg, src)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer predictor.Close()

	router, err := web.NewRouter(web.Options{
		Service:      diagnosis.NewService(predictor, cat),
		Health:       src,
		AllowOrigins: cfg.AllowOrigins,
	})
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.Printf("server listening on :%s", cfg.Port)
	waitForShutdown(server)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ArtifactSource:  strings.ToLower(getEnv("ARTIFACT_SOURCE", sourceFile)),
		ArtifactDir:     getEnv("ARTIFACT_DIR", "artifacts"),
		ScalerArtifact:  getEnv("SCALER_ARTIFACT", "scaler.json"),
		ModelArtifact:   getEnv("MODEL_ARTIFACT", "model.json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CategoriesFile:  os.Getenv("CATEGORIES_FILE"),
		ONNXLibraryPath: os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"),
		AllowOrigins:    splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}

	switch cfg.ArtifactSource {
	case sourceFile:
	case sourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when ARTIFACT_SOURCE=postgres")
		}
	default:
		return nil, fmt.Errorf("ARTIFACT_SOURCE must be %q or %q, got %q", sourceFile, sourcePostgres, cfg.ArtifactSource)
	}

	return cfg, nil
}

func openSource(ctx context.Context, cfg *Config) (artifact.Source, func(), error) {
	if cfg.ArtifactSource != sourcePostgres {
		return artifact.Dir{Root: cfg.ArtifactDir}, func() {}, nil
	}
	pool, err := artifact.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return artifact.NewPostgres(pool), pool.Close, nil
}

// loadArtifacts loads the model pair and category table and checks that the
// table covers exactly the classifier's label space.
func loadArtifacts(ctx context.Context, cfg *Config, src artifact.Source) (*model.Predictor, *catalog.Catalog, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	predictor, err := model.Load(loadCtx, src, cfg.ScalerArtifact, cfg.ModelArtifact, model.Options{
		ONNXLibraryPath: cfg.ONNXLibraryPath,
	})
	if err != nil {
		return nil, nil, err
	}

	var cat *catalog.Catalog
	if cfg.CategoriesFile != "" {
		cat, err = catalog.LoadFile(cfg.CategoriesFile)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		predictor.Close()
		return nil, nil, err
	}

	if err := cat.CheckLabels(predictor.Classes()); err != nil {
		predictor.Close()
		return nil, nil, err
	}

	log.Printf("loaded %s + %s, %d categories", cfg.ScalerArtifact, cfg.ModelArtifact, len(cat.Labels()))
	return predictor, cat, nil
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
