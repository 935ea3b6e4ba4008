package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/studydoc/internal/blob"
	"github.com/emrgen/studydoc/internal/cache"
	"github.com/emrgen/studydoc/internal/compress"
	"github.com/emrgen/studydoc/internal/config"
	"github.com/emrgen/studydoc/internal/jobs"
	"github.com/emrgen/studydoc/internal/notify"
	"github.com/emrgen/studydoc/internal/pipeline"
	"github.com/emrgen/studydoc/internal/provider"
	"github.com/emrgen/studydoc/internal/service"
	"github.com/emrgen/studydoc/internal/store"
)

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{httpPort: httpPort}
}

// Start starts the server
func (s *Server) Start() {
	cnf := config.LoadConfig()
	if s.httpPort != "" {
		cnf.HTTPPort = s.httpPort
	}

	if err := Start(cnf); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start wires the store, the redis bus, the blob store, the generation
// provider and the pipeline, then serves the REST API until interrupted.
func Start(cnf *config.Config) error {
	ctx := context.Background()

	db := config.GetDb(cnf)
	docStore := store.NewGormStore(db)
	if err := docStore.Migrate(); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cnf.RedisAddr,
		Password: cnf.RedisPassword,
		DB:       cnf.RedisDB,
	})
	defer rdb.Close()

	notifier, err := notify.NewRedisNotifier(rdb)
	if err != nil {
		return err
	}
	docCache := cache.NewRedisDocumentCache(rdb)

	blobs, err := newBlobStore(ctx, cnf)
	if err != nil {
		return err
	}

	pipe := pipeline.New(pipeline.Config{
		Store:     docStore,
		Blobs:     blobs,
		Provider:  newProvider(ctx, cnf),
		Notifier:  notifier,
		Cache:     docCache,
		Codec:     compress.NewNop(),
		Workers:   cnf.Workers,
		QueueSize: cnf.QueueSize,
	})

	executor := jobs.NewTaskExecutor([]jobs.CronJob{
		jobs.NewStaleDocumentReaper(docStore, notifier, docCache, cnf.ReapSchedule, cnf.ReapAfter),
	})
	executor.Run()

	docs := service.NewDocumentService(docStore, blobs, docCache, pipe)

	router := gin.New()
	router.Use(gin.Recovery(), RequestTime())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "PUT"},
		AllowHeaders:     []string{"Authorization", "Content-Type", userIDHeader},
		AllowCredentials: true,
	}))

	v1 := router.Group("/v1", RequireUser())
	NewDocumentHandler(docs).Register(v1)
	NewEventsHandler(notifier).Register(v1)

	restServer := &http.Server{
		Addr:    ":" + cnf.HTTPPort,
		Handler: router,
	}

	go func() {
		logrus.Info("starting rest server on: ", restServer.Addr)
		if err := restServer.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	executor.Stop()
	pipe.Stop()

	return nil
}

func newBlobStore(ctx context.Context, cnf *config.Config) (blob.Store, error) {
	switch cnf.BlobBackend {
	case "gcs":
		return blob.NewGCS(ctx, cnf.GCSBucket)
	default:
		return blob.NewLocal(cnf.UploadDir)
	}
}

// newProvider selects the configured generation backend. A backend whose
// construction fails is replaced by an unavailable provider so that every
// pipeline run fails with a provider error instead of the server refusing
// to boot.
func newProvider(ctx context.Context, cnf *config.Config) provider.Provider {
	switch cnf.Provider {
	case config.ProviderHuggingFace:
		p, err := provider.NewHuggingFace(cnf.HuggingFaceURL, cnf.ProviderTimeout)
		if err != nil {
			logrus.Errorf("huggingface provider unavailable: %v", err)
			return provider.Unavailable("huggingface", err)
		}
		return p
	default:
		p, err := provider.NewGemini(ctx, cnf.GeminiProject, cnf.GeminiRegion, cnf.GeminiModel)
		if err != nil {
			logrus.Errorf("gemini provider unavailable: %v", err)
			return provider.Unavailable("gemini", err)
		}
		return p
	}
}
