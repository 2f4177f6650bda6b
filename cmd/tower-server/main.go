// Package main is the entry point for the tower simulation server.
// It only handles dependency injection and server initialization.
// NO simulation logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
	"github.com/skyrisegames/skytower/server/internal/engine"
	"github.com/skyrisegames/skytower/server/internal/events"
	"github.com/skyrisegames/skytower/server/internal/infra/cache"
	"github.com/skyrisegames/skytower/server/internal/infra/storage"
	"github.com/skyrisegames/skytower/server/internal/network"
	"github.com/skyrisegames/skytower/server/internal/platform/logger"
	"github.com/skyrisegames/skytower/server/internal/platform/metrics"
	"github.com/skyrisegames/skytower/server/internal/platform/optimization"
	"github.com/skyrisegames/skytower/server/internal/worldmap"
)

// towerID identifies the singleton tower in storage.
const towerID = "TOWER_1"

// SQLitePersisterAdapter translates domain events to storage events.
type SQLitePersisterAdapter struct {
	repo *storage.SQLiteEventRepository
}

func (a *SQLitePersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	storageEvent := storage.GameEvent{
		ID:        event.ID,
		TowerID:   towerID,
		Timestamp: event.Timestamp,
		SimTime:   event.SimTime,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payloadMap,
		SimDay:    event.SimDay,
	}

	start := time.Now()
	err := a.repo.Append(context.Background(), storageEvent)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

// restoreState reloads the clock and placed businesses from the last
// snapshot, if any.
func restoreState(ctx context.Context, snapRepo *storage.SQLiteSnapshotRepository, eng *engine.Engine, appLogger *logger.Logger) {
	appLogger.Info("Checking DB for an existing tower...")

	snap, err := snapRepo.GetTower(ctx, towerID)
	if err != nil {
		appLogger.Error("Failed to query tower snapshot: " + err.Error())
		return
	}
	if snap == nil {
		appLogger.Info("Database empty. Starting a fresh tower.")
		return
	}

	eng.RestoreClock(snap.SimTime)
	appLogger.Info("Restored game clock from database: " + snap.SimTime.Format("2006-01-02 15:04"))

	businesses, err := snapRepo.GetBusinesses(ctx, towerID)
	if err != nil {
		appLogger.Error("Failed to query business snapshots: " + err.Error())
		return
	}
	for _, b := range businesses {
		if !eng.RestoreBusiness(business.Type(b.BusinessType), b.Floor) {
			appLogger.Warn("Could not restore " + b.BusinessType + " at floor " + strconv.Itoa(b.Floor))
		}
	}
	appLogger.Info("Tower state restored from SQLite.")
}

// backupLoop periodically persists the tower and business snapshots.
func backupLoop(ctx context.Context, snapRepo *storage.SQLiteSnapshotRepository, eng *engine.Engine, mapName string) {
	backupTicker := time.NewTicker(5 * time.Second)
	defer backupTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-backupTicker.C:
			stats := eng.TowerStats()
			_ = snapRepo.UpsertTower(ctx, storage.TowerSnapshot{
				TowerID:    towerID,
				MapName:    mapName,
				SimTime:    eng.Now(),
				SimDay:     0,
				Balance:    eng.Balance(),
				Reputation: stats.Reputation,
				Population: stats.Population,
			})
			for _, b := range eng.SnapshotBusinesses() {
				_ = snapRepo.UpsertBusiness(ctx, storage.BusinessSnapshot{
					TowerID:      towerID,
					Floor:        b.Floor,
					BusinessType: string(b.Type),
					Popularity:   b.Popularity,
					Satisfaction: b.Satisfaction,
					Customers:    b.Customers,
					Open:         b.Open,
				})
			}
		}
	}
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "tower.db", "SQLite database path")
	mapPath := flag.String("map", "maps/tokyo_tower.yaml", "Map definition file")
	flag.Parse()

	log.Println("[TOWER-SERVER] Initializing authoritative simulation server...")

	appLogger := logger.NewLogger()

	appLogger.Info("Initializing SQLite database '" + *dbPath + "'...")
	db, err := storage.InitSQLite(*dbPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	tuning := optimization.DefaultConfig()
	db.SetMaxOpenConns(tuning.DBMaxOpenConns)
	db.SetMaxIdleConns(tuning.DBMaxIdleConns)

	eventRepo := storage.NewSQLiteEventRepository(db)
	eventPersister := &SQLitePersisterAdapter{repo: eventRepo}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(eventPersister)

	appLogger.Info("Loading map '" + *mapPath + "'...")
	worldMap, err := worldmap.LoadOrDefault(*mapPath)
	if err != nil {
		appLogger.Warn("Map load failed, using default map: " + err.Error())
	} else {
		appLogger.Info("Map loaded: " + worldMap.Name())
	}

	appLogger.Info("Bootstrapping engine...")
	gameEngine := engine.NewEngine(worldMap, eventLog, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapRepo := storage.NewSQLiteSnapshotRepository(db)
	restoreState(ctx, snapRepo, gameEngine, appLogger)

	ticker := engine.NewTicker(gameEngine, appLogger)
	go ticker.Start(ctx)

	go backupLoop(ctx, snapRepo, gameEngine, worldMap.Name())

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	statsCache := cache.NewStatsCache(cache.NewMemory())

	// Setup API routes
	mux := http.NewServeMux()
	api := network.NewAPI(gameEngine, towerID, statsCache, hub, appLogger)
	api.RegisterRoutes(mux)

	replay := network.NewReplayHandler(eventLog, appLogger)
	replay.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		log.Println("[TOWER-SERVER] HTTP API & WS server listening on " + *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[TOWER-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[TOWER-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
