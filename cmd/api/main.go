package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"conecta-core-integrations-layer/internal/application"
	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/infrastructure/crm"
	"conecta-core-integrations-layer/internal/infrastructure/encryption"
	"conecta-core-integrations-layer/internal/infrastructure/erp"
	"conecta-core-integrations-layer/internal/infrastructure/idempotency"
	"conecta-core-integrations-layer/internal/infrastructure/mercadopago"
	"conecta-core-integrations-layer/internal/infrastructure/metrics"
	"conecta-core-integrations-layer/internal/infrastructure/pubsub"
	"conecta-core-integrations-layer/internal/infrastructure/repository"
	"conecta-core-integrations-layer/internal/infrastructure/whatsapp"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	securitymiddleware "conecta-core-integrations-layer/internal/infrastructure/middleware"
)

// webhookProcessor is what every adapter service exposes to the webhook
// transport.
type webhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte) (domain.WebhookResult, error)
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Connect to MongoDB
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "conecta_integrations"
	}
	db := client.Database(dbName)

	// Get encryption key (64 hex chars = 32 bytes)
	encryptionKeyHex := os.Getenv("ENCRYPTION_KEY")
	if encryptionKeyHex == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY environment variable is required")
	}
	encryptionKey, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		logger.Fatal().Err(err).Msg("ENCRYPTION_KEY must be hex encoded")
	}
	encryptionService, err := encryption.NewAESGCMService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Initialize repositories
	credentialRepo := repository.NewMongoCredentialRepository(db)
	if mongoRepo, ok := credentialRepo.(*repository.MongoCredentialRepository); ok {
		if err := mongoRepo.EnsureIndexes(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}
	}

	// Initialize Redis for webhook deduplication (optional)
	var dedupStore *idempotency.RedisStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		dedupStore = idempotency.NewRedisStore(redisClient, 24*time.Hour)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, webhook deduplication disabled")
	}

	// Initialize application services
	credentialsService := application.NewCredentialsService(credentialRepo, encryptionService, logger)

	registry := application.NewIntegrationRegistry(logger)
	ledger := application.NewOperationLedger(registry, logger)

	operationPubSub := pubsub.NewOperationPubSub(logger)
	ledger.SetPublisher(operationPubSub)

	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)
	ledger.SetObserver(collector)

	healthService := application.NewHealthService(registry, ledger, logger)
	healthService.SetObserver(collector)
	syncService := application.NewSyncService(registry, healthService, logger)
	exportService := application.NewExportService(registry, ledger, healthService)

	// Shared outbound transport for every vendor client
	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Reconstruct providers from stored credentials
	booter := &integrationBooter{
		registry:    registry,
		credentials: credentialsService,
		ledger:      ledger,
		httpClient:  httpClient,
		logger:      logger,
	}
	if err := booter.bootAll(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to boot integrations")
	}

	// Expire old ledger entries daily
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ledger.Cleanup()
		}
	}()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.AuditLoggingMiddleware(logger))
	r.Use(securitymiddleware.MaxBodyBytesMiddleware(1 << 20))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Integration management
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/integrations", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, registry.List())
		})
		r.Get("/integrations/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, healthService.CheckAll(r.Context()))
		})
		r.Post("/integrations/{id}/credentials", configureIntegrationHandler(booter, logger))
		r.Delete("/integrations/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if err := credentialsService.Delete(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			registry.Unregister(id)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/operations", listOperationsHandler(ledger))
		r.Post("/operations/cleanup", func(w http.ResponseWriter, r *http.Request) {
			removed := ledger.Cleanup()
			writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
		})
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, ledger.Stats())
		})

		r.Post("/sync", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, syncService.SyncAll(r.Context()))
		})
		r.Get("/export", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, exportService.Snapshot(r.Context()))
		})
	})

	// Webhook endpoints
	r.Get("/webhooks/whatsapp", whatsappVerificationHandler(os.Getenv("WHATSAPP_VERIFY_TOKEN"), logger))
	r.Post("/webhooks/whatsapp", webhookHandler(whatsapp.Platform, booter, dedupStore, logger))
	r.Post("/webhooks/mercadopago", webhookHandler(mercadopago.Platform, booter, dedupStore, logger))
	r.Post("/webhooks/crm/{platform}", platformWebhookHandler(booter, dedupStore, logger))
	r.Post("/webhooks/erp/{platform}", platformWebhookHandler(booter, dedupStore, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// integrationBooter constructs adapter services from stored credentials
// and registers them. It also keeps the per-platform webhook verifiers.
type integrationBooter struct {
	registry    *application.IntegrationRegistry
	credentials *application.CredentialsService
	ledger      *application.OperationLedger
	httpClient  ports.Doer
	logger      zerolog.Logger

	mu        sync.RWMutex
	verifiers map[string]*whatsapp.WebhookVerifier
}

func (b *integrationBooter) bootAll(ctx context.Context) error {
	credentials, err := b.credentials.ListDecrypted(ctx)
	if err != nil {
		return err
	}
	for _, credential := range credentials {
		if err := b.register(credential); err != nil {
			// A bad credential set must not block the rest of the boot.
			b.logger.Error().Err(err).
				Str("integrationId", credential.IntegrationID).
				Str("platform", credential.Platform).
				Msg("Failed to construct provider, skipping integration")
		}
	}
	return nil
}

func (b *integrationBooter) register(credential *domain.IntegrationCredential) error {
	handle, err := b.buildService(credential)
	if err != nil {
		return err
	}
	b.registry.Unregister(credential.IntegrationID)
	return b.registry.Register(credential.IntegrationID, handle, credential.Type, credential.Platform)
}

func (b *integrationBooter) buildService(credential *domain.IntegrationCredential) (interface{}, error) {
	fields := credential.Fields
	switch credential.Type {
	case domain.IntegrationTypeMessaging:
		provider, err := whatsapp.NewClient(whatsapp.Config{
			AccessToken:       fields["accessToken"],
			PhoneNumberID:     fields["phoneNumberId"],
			BusinessAccountID: fields["businessAccountId"],
		}, b.httpClient, b.logger)
		if err != nil {
			return nil, err
		}
		if secret := fields["appSecret"]; secret != "" {
			b.mu.Lock()
			if b.verifiers == nil {
				b.verifiers = make(map[string]*whatsapp.WebhookVerifier)
			}
			b.verifiers[credential.Platform] = whatsapp.NewWebhookVerifier(secret)
			b.mu.Unlock()
		}
		return application.NewMessagingService(credential.IntegrationID, credential.Platform, provider, b.ledger, b.logger), nil

	case domain.IntegrationTypePayments:
		provider, err := mercadopago.NewClient(mercadopago.Config{
			AccessToken: fields["accessToken"],
		}, b.httpClient, b.logger)
		if err != nil {
			return nil, err
		}
		return application.NewPaymentsService(credential.IntegrationID, credential.Platform, provider, b.ledger, b.logger), nil

	case domain.IntegrationTypeCRM:
		provider, err := crm.NewProvider(credential.Platform, fields, b.httpClient, b.logger)
		if err != nil {
			return nil, err
		}
		return application.NewCRMService(credential.IntegrationID, credential.Platform, provider, b.ledger, b.logger), nil

	case domain.IntegrationTypeERP:
		provider, err := erp.NewProvider(credential.Platform, fields, b.httpClient, b.logger)
		if err != nil {
			return nil, err
		}
		return application.NewERPService(credential.IntegrationID, credential.Platform, provider, b.ledger, b.logger), nil
	}
	return nil, domain.NewValidationError("type", "unknown integration type: "+string(credential.Type))
}

// processorFor finds the registered adapter service for a platform.
func (b *integrationBooter) processorFor(platform string) (webhookProcessor, bool) {
	for _, integration := range b.registry.List() {
		if integration.Platform != platform {
			continue
		}
		handle, ok := b.registry.Handle(integration.ID)
		if !ok {
			continue
		}
		if processor, ok := handle.(webhookProcessor); ok {
			return processor, true
		}
	}
	return nil, false
}

func (b *integrationBooter) verifierFor(platform string) *whatsapp.WebhookVerifier {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.verifiers[platform]
}

// configureIntegrationHandler stores credentials and (re)constructs the
// provider so the integration is live without a restart.
func configureIntegrationHandler(booter *integrationBooter, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			Platform string            `json:"platform"`
			Fields   map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		credential, err := booter.credentials.ConfigureIntegration(r.Context(), application.ConfigureIntegrationInput{
			IntegrationID: id,
			Platform:      body.Platform,
			Fields:        body.Fields,
		})
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		if err := booter.register(credential); err != nil {
			logger.Error().Err(err).Str("integrationId", id).Msg("Failed to construct provider")
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"integrationId": credential.IntegrationID,
			"platform":      credential.Platform,
			"status":        string(domain.StatusConfiguring),
		})
	}
}

// listOperationsHandler exposes ledger queries through query parameters.
func listOperationsHandler(ledger *application.OperationLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := domain.OperationFilter{
			Type:     domain.IntegrationType(q.Get("type")),
			Platform: q.Get("platform"),
			Status:   domain.OperationStatus(q.Get("status")),
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			filter.Limit = limit
		}
		if raw := q.Get("startDate"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "startDate must be RFC 3339")
				return
			}
			filter.StartDate = &ts
		}
		if raw := q.Get("endDate"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "endDate must be RFC 3339")
				return
			}
			filter.EndDate = &ts
		}

		writeJSON(w, http.StatusOK, ledger.Query(filter))
	}
}

// whatsappVerificationHandler answers Meta's subscription handshake:
// echo hub.challenge when the verify token matches.
func whatsappVerificationHandler(verifyToken string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if verifyToken == "" || q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != verifyToken {
			logger.Warn().Msg("Rejected webhook verification attempt")
			writeError(w, http.StatusForbidden, "verification failed")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
	}
}

// webhookHandler receives a vendor webhook for a fixed platform,
// verifies and deduplicates it, and hands it to the adapter service.
func webhookHandler(platform string, booter *integrationBooter, dedup *idempotency.RedisStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		if verifier := booter.verifierFor(platform); verifier != nil {
			if err := verifier.Verify(payload, r.Header.Get("X-Hub-Signature-256")); err != nil {
				logger.Warn().Err(err).Str("platform", platform).Msg("Webhook signature rejected")
				writeError(w, http.StatusUnauthorized, "invalid signature")
				return
			}
		}

		if dedup != nil {
			first, err := dedup.Claim(r.Context(), platform, payload)
			if err != nil {
				logger.Error().Err(err).Msg("Webhook deduplication failed, processing anyway")
			} else if !first {
				writeJSON(w, http.StatusOK, domain.WebhookResult{Processed: false, Action: "duplicate"})
				return
			}
		}

		processor, ok := booter.processorFor(platform)
		if !ok {
			writeError(w, http.StatusNotFound, "no integration registered for platform "+platform)
			return
		}

		result, err := processor.ProcessWebhook(r.Context(), payload)
		if err != nil {
			logger.Error().Err(err).Str("platform", platform).Msg("Webhook processing failed")
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// platformWebhookHandler is webhookHandler with the platform taken from
// the URL, for the CRM and ERP vendor families.
func platformWebhookHandler(booter *integrationBooter, dedup *idempotency.RedisStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := chi.URLParam(r, "platform")
		webhookHandler(platform, booter, dedup, logger)(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps the error taxonomy to HTTP: bad input is the
// caller's fault, everything upstream or misconfigured is a degraded
// 5xx.
func statusForError(err error) int {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var configErr *domain.ConfigurationError
	if errors.As(err, &configErr) {
		return http.StatusServiceUnavailable
	}
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
