package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/CyberSecurityUP/GroomSafe/pkg/audit"
	"github.com/CyberSecurityUP/GroomSafe/pkg/config"
	"github.com/CyberSecurityUP/GroomSafe/pkg/core"
	"github.com/CyberSecurityUP/GroomSafe/pkg/httputil"
	"github.com/CyberSecurityUP/GroomSafe/pkg/lexicon"
	"github.com/CyberSecurityUP/GroomSafe/pkg/model"
	"github.com/CyberSecurityUP/GroomSafe/pkg/shield"
	"github.com/CyberSecurityUP/GroomSafe/pkg/synthetic"
)

const Version = "0.1.0"

// Service wires the scoring engine to the audit trail and the analyst
// protection layer. Storage backends degrade to local alternatives when
// the external ones are not configured.
type Service struct {
	engine     *core.Engine
	explainer  *core.ExplanationBuilder
	summarizer *shield.Summarizer
	guard      *shield.ExposureGuard
	auditor    *audit.Logger
	config     *config.Config

	closers []func()
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	s := &Service{
		explainer:  core.NewExplanationBuilder(),
		summarizer: shield.NewSummarizer(),
		config:     cfg,
	}

	// Phrase lexicon - built-in multilingual set, optionally overridden
	if cfg.LexiconPath != "" {
		if err := lexicon.Get().LoadFile(cfg.LexiconPath); err != nil {
			return nil, fmt.Errorf("load lexicon %s: %w", cfg.LexiconPath, err)
		}
		log.Printf("✓ Custom lexicon loaded (%s, %d phrases)", cfg.LexiconPath, lexicon.Get().TotalPhrases())
	} else {
		log.Printf("○ Built-in lexicon in use (%d phrases)", lexicon.Get().TotalPhrases())
	}

	synth, err := core.NewRiskSynthesizer(
		core.WithReviewThresholds(cfg.ReviewThreshold, cfg.CriticalThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize risk synthesizer: %w", err)
	}
	engine, err := core.NewEngine(core.WithSynthesizer(synth))
	if err != nil {
		return nil, fmt.Errorf("initialize scoring engine: %w", err)
	}
	s.engine = engine

	// Audit trail - postgres when configured, JSONL files otherwise
	var store audit.Store
	switch cfg.AuditBackend {
	case config.AuditPostgres:
		pg, err := audit.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres audit store: %w", err)
		}
		s.closers = append(s.closers, pg.Close)
		store = pg
		log.Println("✓ Audit trail enabled (postgres)")
	default:
		fs, err := audit.NewFileStore(cfg.AuditLogDir)
		if err != nil {
			return nil, fmt.Errorf("initialize file audit store: %w", err)
		}
		s.closers = append(s.closers, func() { fs.Close() })
		store = fs
		log.Printf("✓ Audit trail enabled (file: %s)", fs.Path())
	}
	s.auditor = audit.NewLogger(store)

	// Analyst session store - Redis when enabled, in-memory otherwise
	var sessions shield.SessionStore
	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s.closers = append(s.closers, func() { client.Close() })
		sessions = shield.NewRedisStore(client, shield.WithTTL(cfg.ShieldSessionTTL))
		log.Printf("✓ Analyst sessions in Redis (%s)", cfg.RedisAddr)
	} else {
		mem := shield.NewInMemoryStore(shield.WithMaxAge(cfg.ShieldSessionTTL))
		s.closers = append(s.closers, mem.Close)
		sessions = mem
		log.Println("○ Analyst sessions in memory (Redis disabled)")
	}
	s.guard = shield.NewExposureGuard(sessions, shield.WithGuardConfig(shield.GuardConfig{
		MaxCasesPerSession:    cfg.MaxCasesPerSession,
		MaxHighRiskPerSession: cfg.MaxHighRiskPerSession,
		MaxSessionMinutes:     cfg.MaxSessionMinutes,
		MandatoryBreakMinutes: cfg.MandatoryBreakMinutes,
	}))

	return s, nil
}

// Close releases every backend the service opened.
func (s *Service) Close() {
	for _, c := range s.closers {
		c()
	}
}

// Assess scores one conversation and records it on the audit trail.
func (s *Service) Assess(ctx context.Context, conv *model.Conversation) (*model.BehavioralFeatures, *model.RiskAssessment, error) {
	features, assessment, err := s.engine.Assess(conv)
	if err != nil {
		return nil, nil, err
	}

	if err := s.auditor.AssessmentCreated(ctx, assessment); err != nil {
		return nil, nil, fmt.Errorf("record assessment: %w", err)
	}
	if assessment.RequiresHumanReview {
		if err := s.auditor.HumanReviewTriggered(ctx, assessment.ConversationID, assessment.AssessmentID,
			assessment.ReasoningSummary, assessment.GroomingRiskScore, assessment.RiskLevel); err != nil {
			return nil, nil, fmt.Errorf("record review trigger: %w", err)
		}
	}

	return features, assessment, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := config.NewDefaultConfig()
		if len(os.Args) > 2 {
			cfg.HTTPPort = os.Args[2]
		}
		runHTTPServer(cfg)
	case "assess":
		if len(os.Args) < 3 {
			fmt.Println("Usage: groomsafe assess <conversation.json>")
			os.Exit(1)
		}
		runCLIAssess(os.Args[2])
	case "demo":
		runDemo()
	case "version":
		fmt.Printf("GroomSafe v%s\n", Version)
		fmt.Println("Grooming Risk Detection - behavioral scoring on sanitized conversations")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("GroomSafe v%s - Grooming Risk Detection\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  groomsafe serve [port]          Start HTTP API (default: 8090)")
	fmt.Println("  groomsafe assess <file.json>    Score a sanitized conversation file")
	fmt.Println("  groomsafe demo                  Score the built-in synthetic datasets")
	fmt.Println("  groomsafe version               Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  groomsafe serve 8090")
	fmt.Println("  groomsafe assess conversation.json")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  GROOMSAFE_PORT             HTTP port (default: 8090)")
	fmt.Println("  GROOMSAFE_AUDIT_BACKEND    Audit store: file, postgres (default: file)")
	fmt.Println("  GROOMSAFE_POSTGRES_DSN     Connection string for the postgres backend")
	fmt.Println("  GROOMSAFE_REDIS_ENABLED    Keep analyst sessions in Redis (default: false)")
	fmt.Println("  GROOMSAFE_LEXICON_PATH     YAML file overriding the built-in phrase lexicon")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

// batchItem is one batch result. A failed conversation carries an error
// instead of an assessment; the slice preserves input order.
type batchItem struct {
	ConversationID uuid.UUID             `json:"conversation_id"`
	Assessment     *model.RiskAssessment `json:"assessment,omitempty"`
	Error          string                `json:"error,omitempty"`
}

// runBatch scores conversations with bounded concurrency. Each item
// succeeds or fails independently. On context cancellation no further
// work is launched, but every started assessment is waited for before
// returning; the caller's context must stay valid until runBatch returns.
func runBatch(
	ctx context.Context,
	sem *httputil.Semaphore,
	convs []model.Conversation,
	assess func(context.Context, *model.Conversation) (*model.RiskAssessment, error),
) ([]batchItem, error) {
	results := make([]batchItem, len(convs))

	var wg sync.WaitGroup
	var acquireErr error
	for i := range convs {
		if err := sem.Acquire(ctx); err != nil {
			acquireErr = err
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release()

			conv := &convs[i]
			assessment, err := assess(ctx, conv)
			if err != nil {
				results[i] = batchItem{ConversationID: conv.ConversationID, Error: err.Error()}
				return
			}
			results[i] = batchItem{ConversationID: conv.ConversationID, Assessment: assessment}
		}(i)
	}
	wg.Wait()

	if acquireErr != nil {
		return nil, acquireErr
	}
	return results, nil
}

func runHTTPServer(cfg *config.Config) {
	cfg.MustValidate()

	ctx := context.Background()
	svc, err := NewService(ctx, cfg)
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	defer svc.Close()

	sem := httputil.NewSemaphore(cfg.BatchConcurrency)

	app := fiber.New(fiber.Config{
		AppName: "GroomSafe",
	})

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": Version,
			"batch": fiber.Map{
				"capacity":  sem.Capacity(),
				"in_flight": sem.InUse(),
			},
		})
	})

	// Score one sanitized conversation. The response carries the feature
	// vector and the assessment; pass ?explain=true for the full
	// explanation as well.
	app.Post("/assess", func(c fiber.Ctx) error {
		var conv model.Conversation
		if err := c.Bind().Body(&conv); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}

		features, assessment, err := svc.Assess(c.Context(), &conv)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}

		resp := fiber.Map{
			"assessment": assessment,
			"features":   features,
		}
		if c.Query("explain") == "true" {
			resp["explanation"] = svc.explainer.Build(assessment, features, &conv)
		}
		return c.JSON(resp)
	})

	// Score a batch of conversations with bounded concurrency. Each item
	// succeeds or fails independently.
	app.Post("/assess/batch", func(c fiber.Ctx) error {
		var req struct {
			Conversations []model.Conversation `json:"conversations"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if len(req.Conversations) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "conversations field is required"})
		}
		if len(req.Conversations) > cfg.BatchMaxSize {
			return c.Status(400).JSON(fiber.Map{
				"error": fmt.Sprintf("batch exceeds maximum of %d conversations", cfg.BatchMaxSize),
			})
		}

		results, err := runBatch(c.Context(), sem, req.Conversations, func(ctx context.Context, conv *model.Conversation) (*model.RiskAssessment, error) {
			_, assessment, err := svc.Assess(ctx, conv)
			return assessment, err
		})
		if err != nil {
			return c.Status(503).JSON(fiber.Map{"error": "request cancelled"})
		}

		return c.JSON(fiber.Map{"results": results})
	})

	// Full explanation for a conversation, including the plain-text audit
	// report.
	app.Post("/explain", func(c fiber.Ctx) error {
		var conv model.Conversation
		if err := c.Bind().Body(&conv); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}

		features, assessment, err := svc.Assess(c.Context(), &conv)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"explanation":  svc.explainer.Build(assessment, features, &conv),
			"audit_report": svc.explainer.AuditReport(assessment, features, &conv),
		})
	})

	// Analyst-safe summary. The exposure guard runs first; a denied check
	// returns 429 with the break recommendation. A served summary counts
	// against the analyst's session limits.
	app.Post("/shield/summary", func(c fiber.Ctx) error {
		var req struct {
			AnalystID     string             `json:"analyst_id"`
			ExposureLevel string             `json:"exposure_level"`
			Conversation  model.Conversation `json:"conversation"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.AnalystID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "analyst_id field is required"})
		}
		if req.ExposureLevel == "" {
			req.ExposureLevel = string(cfg.DefaultExposureLevel)
		}

		features, assessment, err := svc.Assess(c.Context(), &req.Conversation)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}

		status, err := svc.guard.CheckSafety(c.Context(), req.AnalystID, assessment.RiskLevel)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !status.SafeToProceed {
			return c.Status(429).JSON(fiber.Map{"safety_status": status})
		}

		summary := svc.summarizer.BuildSummary(&req.Conversation, assessment, features, req.ExposureLevel)
		if err := svc.guard.LogExposure(c.Context(), req.AnalystID, assessment.RiskLevel, 0); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"summary":       summary,
			"safety_status": status,
		})
	})

	// Exposure check without consuming a case slot
	app.Post("/shield/check", func(c fiber.Ctx) error {
		var req struct {
			AnalystID string          `json:"analyst_id"`
			RiskLevel model.RiskLevel `json:"risk_level"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.AnalystID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "analyst_id field is required"})
		}

		status, err := svc.guard.CheckSafety(c.Context(), req.AnalystID, req.RiskLevel)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(status)
	})

	// Reset an analyst session after a completed break
	app.Post("/shield/reset", func(c fiber.Ctx) error {
		var req struct {
			AnalystID string `json:"analyst_id"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.AnalystID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "analyst_id field is required"})
		}

		if err := svc.guard.ResetSession(c.Context(), req.AnalystID); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "reset"})
	})

	// Record exposure minutes explicitly, for review time spent outside
	// the summary endpoint
	app.Post("/shield/exposure", func(c fiber.Ctx) error {
		var req struct {
			AnalystID       string          `json:"analyst_id"`
			RiskLevel       model.RiskLevel `json:"risk_level"`
			ExposureMinutes float64         `json:"exposure_minutes"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.AnalystID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "analyst_id field is required"})
		}

		if err := svc.guard.LogExposure(c.Context(), req.AnalystID, req.RiskLevel, req.ExposureMinutes); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		status, err := svc.guard.CheckSafety(c.Context(), req.AnalystID, req.RiskLevel)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(status)
	})

	// Reference information for a grooming stage
	app.Get("/stage/:stage", func(c fiber.Ctx) error {
		stage := model.GroomingStage(c.Params("stage"))
		known := false
		for _, s := range model.StageOrder {
			if s == stage {
				known = true
				break
			}
		}
		if !known {
			return c.Status(404).JSON(fiber.Map{"error": "unknown stage"})
		}
		return c.JSON(fiber.Map{
			"stage":           stage,
			"title":           stage.Title(),
			"description":     core.StageDescription(stage),
			"recommendations": core.StageRecommendations(stage),
		})
	})

	// Graph-ready payload for dashboards
	app.Post("/visualization", func(c fiber.Ctx) error {
		var conv model.Conversation
		if err := c.Bind().Body(&conv); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}

		features, assessment, err := svc.Assess(c.Context(), &conv)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(svc.summarizer.BuildVisualization(&conv, features, assessment))
	})

	// Audit trail queries
	app.Get("/audit/timeline/:conversation_id", func(c fiber.Ctx) error {
		convID, err := uuid.Parse(c.Params("conversation_id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid conversation_id"})
		}

		entries, err := svc.auditor.ConversationTimeline(c.Context(), convID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	app.Get("/audit/compliance", func(c fiber.Ctx) error {
		end := time.Now().UTC()
		start := end.Add(-30 * 24 * time.Hour)
		if v := c.Query("start"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid start time, use RFC3339"})
			}
			start = t
		}
		if v := c.Query("end"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid end time, use RFC3339"})
			}
			end = t
		}

		report, err := svc.auditor.GenerateComplianceReport(c.Context(), start, end)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report)
	})

	log.Printf("GroomSafe HTTP server starting on :%s", cfg.HTTPPort)
	log.Printf("Endpoints:")
	log.Printf("  GET  /health                        - Health check")
	log.Printf("  POST /assess                        - Score one conversation (?explain=true)")
	log.Printf("  POST /assess/batch                  - Score a batch of conversations")
	log.Printf("  POST /explain                       - Full explanation + audit report")
	log.Printf("  POST /shield/summary                - Analyst-safe summary (guarded)")
	log.Printf("  POST /shield/check                  - Analyst exposure check")
	log.Printf("  POST /shield/reset                  - Reset an analyst session")
	log.Printf("  POST /shield/exposure               - Record analyst exposure minutes")
	log.Printf("  GET  /stage/:stage                  - Stage reference information")
	log.Printf("  POST /visualization                 - Graph-ready assessment payload")
	log.Printf("  GET  /audit/timeline/:id            - Audit timeline for a conversation")
	log.Printf("  GET  /audit/compliance              - Compliance metrics for a date range")

	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIAssess(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read conversation file: %v", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		log.Fatalf("parse conversation file: %v", err)
	}

	cfg := config.NewLocalConfig()
	svc, err := NewService(context.Background(), cfg)
	if err != nil {
		log.Fatalf("initialize service: %v", err)
	}
	defer svc.Close()

	features, assessment, err := svc.Assess(context.Background(), &conv)
	if err != nil {
		log.Fatalf("assess conversation: %v", err)
	}

	out, _ := json.MarshalIndent(fiber.Map{
		"assessment":  assessment,
		"features":    features,
		"explanation": svc.explainer.Build(assessment, features, &conv),
	}, "", "  ")
	fmt.Println(string(out))
}

func runDemo() {
	cfg := config.NewLocalConfig()
	svc, err := NewService(context.Background(), cfg)
	if err != nil {
		log.Fatalf("initialize service: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	for _, tier := range synthetic.Tiers {
		conv := synthetic.Generate(tier)
		_, assessment, err := svc.Assess(ctx, conv)
		if err != nil {
			log.Fatalf("assess %s dataset: %v", tier, err)
		}

		review := ""
		if assessment.RequiresHumanReview {
			review = " [human review]"
		}
		fmt.Printf("%-14s score=%5.1f level=%-8s stage=%-21s confidence=%.2f%s\n",
			tier, assessment.GroomingRiskScore, assessment.RiskLevel,
			assessment.CurrentStage, assessment.ConfidenceLevel, review)
	}
}
