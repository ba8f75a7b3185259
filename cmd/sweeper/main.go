package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/sanket-rajput/agritraceDep/internal/models"
	"github.com/sanket-rajput/agritraceDep/internal/services"
)

// The sweeper merges duplicate order rows for the same derived key. The
// unique index prevents new duplicates; this covers rows predating it and
// doubles as a safety net if the index is ever dropped during a migration.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	schedule, err := loadSchedule(db)
	if err != nil {
		log.Fatalf("Failed to load sweep schedule: %v", err)
	}

	store := services.NewOrderStore(db)

	log.Printf("Sweeper started, schedule %q, next run %s", schedule.RecurringInterval, schedule.Due)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down sweeper...")
		cancel()
	}()

	// Ticker granularity is one minute; the schedule decides whether a tick
	// actually runs the sweep.
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	runSweep(ctx, db, store, schedule)

	for {
		select {
		case <-ticker.C:
			if time.Now().Before(schedule.Due) {
				continue
			}
			runSweep(ctx, db, store, schedule)
		case <-ctx.Done():
			return
		}
	}
}

// loadSchedule fetches the sweep schedule, seeding one from SWEEP_RRULE
// (default hourly) on first run.
func loadSchedule(db *gorm.DB) (*models.SweepSchedule, error) {
	var schedule models.SweepSchedule
	err := db.Where("enabled = ?", true).First(&schedule).Error
	if err == nil {
		return &schedule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	interval := os.Getenv("SWEEP_RRULE")
	if interval == "" {
		interval = "FREQ=HOURLY;INTERVAL=1"
	}
	schedule = models.SweepSchedule{
		Name:              "duplicate-order-sweep",
		RecurringInterval: interval,
		Due:               time.Now(),
		Enabled:           true,
	}
	if err := db.Create(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func runSweep(ctx context.Context, db *gorm.DB, store *services.OrderStore, schedule *models.SweepSchedule) {
	log.Println("Running duplicate order sweep...")

	cancelled, err := services.SweepDuplicateOrders(ctx, store)
	if err != nil {
		log.Printf("Sweep failed: %v", err)
	} else {
		log.Printf("Sweep completed, %d duplicate rows cancelled", cancelled)
	}

	now := time.Now()
	schedule.LastRun = &now
	schedule.Due = schedule.NextDue()
	if err := db.Model(schedule).Updates(map[string]interface{}{
		"last_run": schedule.LastRun,
		"due":      schedule.Due,
	}).Error; err != nil {
		log.Printf("Failed to persist sweep schedule: %v", err)
	}
}
