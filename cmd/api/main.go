package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AlertIntelAPI/internal/config"
	"AlertIntelAPI/internal/database"
	"AlertIntelAPI/internal/engine"
	"AlertIntelAPI/internal/handler"
	"AlertIntelAPI/internal/logger"
	"AlertIntelAPI/internal/models"
	"AlertIntelAPI/internal/mqtt"
	"AlertIntelAPI/internal/notification"
	"AlertIntelAPI/internal/repository"
	"AlertIntelAPI/internal/server"
	"AlertIntelAPI/internal/service"
	"AlertIntelAPI/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger since main logger isn't ready
		panic("Failed to load configuration: " + err.Error())
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Mode:        cfg.Logging.Mode,
		LogFilePath: cfg.Logging.FilePath,
		UseColors:   cfg.Logging.UseColors,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: %v", err)
	}

	cfg.Print()
	log.Info("Starting Alert Intelligence API Server")

	// 3. Database Connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Database connected successfully")

	// 4. Initialize Repositories
	alertRepo := repository.NewAlertRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB)

	// 5. Initialize MQTT Client
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		MQTT:   &cfg.MQTT,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create MQTT client: %v", err)
	}
	defer func(mqttClient *mqtt.Client) {
		err := mqttClient.Disconnect()
		if err != nil {
			log.Error("Failed to disconnect MQTT: %v", err)
		}
	}(mqttClient)

	if err := mqttClient.Connect(); err != nil {
		log.Fatal("Failed to connect to MQTT broker: %v", err)
	}

	// 6. WebSocket Hub
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	hub := websocket.NewHub(log)
	go hub.Run(hubCtx)

	// 7. Intelligence Engine
	dispatcher := notification.NewDispatcher(mqttClient, hub, log)
	recorder := service.NewAnnotationRecorder(alertRepo, hub, log)
	eng := engine.New(engine.Config{
		MaxPatterns:     cfg.Engine.MaxPatterns,
		ExpertFanout:    cfg.Engine.ExpertFanout,
		DispatchTimeout: cfg.Engine.DispatchTimeout,
	}, alertRepo, dispatcher, recorder, log)

	// 8. Services
	alertService := service.NewAlertService(alertRepo, snapshotRepo, eng, hub, log)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := alertService.RestoreEngineState(bootCtx); err != nil {
		log.Error("Engine state restore failed, starting cold: %v", err)
	}
	bootCancel()

	go alertService.CheckpointLoop(hubCtx, cfg.Engine.CheckpointInterval)

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-hubCtx.Done():
				return
			case <-ticker.C:
				alertService.CleanUpTask(hubCtx)
			}
		}
	}()

	// 9. MQTT Subscriptions
	if err := mqttClient.Subscribe(cfg.MQTT.IngestTopic, handleAlertIngest(alertService, log)); err != nil {
		log.Fatal("Failed to subscribe to ingest topic: %v", err)
	}

	if err := mqttClient.Subscribe(cfg.MQTT.ResolutionTopic, handleResolution(alertService, log)); err != nil {
		log.Fatal("Failed to subscribe to resolution topic: %v", err)
	}

	log.Info("MQTT subscriptions active")

	// 10. Initialize Handlers
	alertHandler := handler.NewAlertHandler(alertService, log)
	routingHandler := handler.NewRoutingHandler(eng, log)
	healthHandler := handler.NewHealthHandler(db, mqttClient, log)
	wsHandler := handler.NewWSHandler(hub, log)

	// 11. Start HTTP Server
	srv := server.New(cfg, log)
	srv.RegisterHandlers(alertHandler, routingHandler, healthHandler, wsHandler)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	log.Info("API server ready on http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	// 12. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error: %v", err)
	}

	// Let in-flight pipelines finish, then take a final checkpoint so
	// nothing learned since the last tick is lost.
	eng.Wait()
	if err := alertService.CheckpointEngineState(shutdownCtx); err != nil {
		log.Error("Final engine checkpoint failed: %v", err)
	}

	log.Info("Shutdown complete")
}

// --- MQTT Handlers ---

func handleAlertIngest(svc service.IAlertService, log *logger.Logger) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var req models.CreateAlertRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Error("Invalid alert payload on %s: %v", topic, err)
			return err
		}

		if _, err := svc.Ingest(ctx, &req); err != nil {
			log.Error("Failed to ingest alert from MQTT: %v", err)
			return err
		}
		return nil
	}
}

func handleResolution(svc service.IAlertService, log *logger.Logger) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		var event models.ResolutionEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Error("Invalid resolution payload on %s: %v", topic, err)
			return err
		}

		if err := svc.RecordResolutionOutcome(event.UserID, event.AlertType, event.Successful); err != nil {
			log.Error("Failed to record resolution outcome: %v", err)
			return err
		}
		return nil
	}
}
