package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strategypilot/backend/internal/audit"
	audithandler "strategypilot/backend/internal/audit/handler"
	auditrepo "strategypilot/backend/internal/audit/repository"
	auditservice "strategypilot/backend/internal/audit/service"
	billinghandler "strategypilot/backend/internal/billing/handler"
	billingrepo "strategypilot/backend/internal/billing/repository"
	billingservice "strategypilot/backend/internal/billing/service"
	"strategypilot/backend/internal/billing/stripe"
	"strategypilot/backend/internal/config"
	"strategypilot/backend/internal/db"
	healthhandler "strategypilot/backend/internal/health/handler"
	identityhandler "strategypilot/backend/internal/identity/handler"
	identityrepo "strategypilot/backend/internal/identity/repository"
	identityservice "strategypilot/backend/internal/identity/service"
	imphandler "strategypilot/backend/internal/impersonation/handler"
	imprepo "strategypilot/backend/internal/impersonation/repository"
	impservice "strategypilot/backend/internal/impersonation/service"
	invitationhandler "strategypilot/backend/internal/invitation/handler"
	invitationrepo "strategypilot/backend/internal/invitation/repository"
	invitationservice "strategypilot/backend/internal/invitation/service"
	membershiprepo "strategypilot/backend/internal/membership/repository"
	orgrepo "strategypilot/backend/internal/organization/repository"
	"strategypilot/backend/internal/security"
	"strategypilot/backend/internal/server"
	sessionrepo "strategypilot/backend/internal/session/repository"
	teamhandler "strategypilot/backend/internal/team/handler"
	teamrepo "strategypilot/backend/internal/team/repository"
	teamservice "strategypilot/backend/internal/team/service"
	"strategypilot/backend/internal/telemetry"
	"strategypilot/backend/internal/telemetry/otel"
	"strategypilot/backend/internal/telemetry/producer"
	userhandler "strategypilot/backend/internal/user/handler"
	userrepo "strategypilot/backend/internal/user/repository"
	userservice "strategypilot/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "strategypilot-server", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	policy := security.DefaultPasswordPolicy()

	users := userrepo.NewPostgresRepository(database)
	identities := identityrepo.NewPostgresRepository(database)
	resets := identityrepo.NewPostgresPasswordResetRepository(database)
	orgs := orgrepo.NewPostgresRepository(database)
	teams := teamrepo.NewPostgresRepository(database)
	memberships := membershiprepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	invitations := invitationrepo.NewPostgresRepository(database)
	grants := imprepo.NewPostgresRepository(database)
	subscriptions := billingrepo.NewPostgresRepository(database)
	auditLogs := auditrepo.NewPostgresRepository(database)

	var emitter telemetry.EventEmitter
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokerList(), cfg.AuditKafkaTopic)
	if len(cfg.KafkaBrokerList()) > 0 {
		emitter = kafkaProducer
		defer func() {
			time.Sleep(telemetry.ShutdownDrainDuration)
			if err := kafkaProducer.Close(); err != nil {
				log.Printf("kafka close: %v", err)
			}
		}()
	} else {
		emitter = otel.NewEventEmitter(providers.LoggerProvider)
		log.Println("no Kafka brokers configured; events go to the OTel logger")
	}

	authSvc := identityservice.NewAuthService(users, identities, orgs, teams, memberships, sessions, resets, hasher, tokens, policy, cfg.RefreshTTL())
	userSvc := userservice.NewService(users, memberships, teams, sessions)
	teamSvc := teamservice.NewService(teams)
	invitationSvc := invitationservice.NewService(invitations, users, identities, memberships, teams, hasher, policy)
	impSvc := impservice.NewService(grants, users, memberships)
	stripeClient := stripe.NewClient(cfg.StripeSecretKey, cfg.StripeAPIBaseURL)
	billingSvc := billingservice.NewService(subscriptions, memberships, stripeClient, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	auditSvc := auditservice.NewService(auditLogs)

	router := server.New(server.Deps{
		Tokens:        tokens,
		AuditRecorder: audit.NewRecorder(auditLogs),
		CORSOrigins:   cfg.CORSOrigins(),
		Auth:          identityhandler.NewAuthHandler(authSvc, emitter),
		Users:         userhandler.New(userSvc),
		Teams:         teamhandler.New(teamSvc),
		Invitations:   invitationhandler.New(invitationSvc, emitter, cfg.InviteBaseURL),
		Impersonation: imphandler.New(impSvc, tokens, emitter),
		Billing:       billinghandler.New(billingSvc, emitter),
		AuditLogs:     audithandler.New(auditSvc),
		Health:        healthhandler.New(database),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
