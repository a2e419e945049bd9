package main

import (
	"log"
	"os"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	if len(os.Args) > 1 && os.Args[1] == "run" {
		if _, err := RunPipeline(cfg, db); err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		return
	}

	log.Println("Starting QA reconciliation bot...")
	if cfg.RunSchedule == "" {
		// No schedule configured: behave like "run" so cron-less setups
		// still work from the system crontab.
		if _, err := RunPipeline(cfg, db); err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		return
	}

	StartScheduler(cfg, db)
	select {}
}
