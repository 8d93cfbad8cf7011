package boot

import (
	"log"

	"tixmart/src/config"
	"tixmart/src/db"
	"tixmart/src/lib"
	"tixmart/src/models"
	"tixmart/src/services"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.TicketType{},
		&models.Order{},
		&models.Reservation{},
		&models.PaymentEvent{},
		&models.ETicket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler puts the expiry sweeper on a fixed interval. The same
// sweep is reachable on demand through the cron endpoint.
func InitScheduler(sweeper *services.Sweeper) {
	interval := config.SweepInterval()
	id, err := lib.CreateCronJob(func() {
		summary := sweeper.Sweep()
		log.Printf("[scheduler] Sweep finished: expired=%d failed=%d\n", summary.Expired, summary.Failed)
	}, interval)
	if err != nil {
		log.Printf("Error scheduling sweeper job: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	sched.Start()
	log.Printf("Sweeper scheduled every %s with job ID %s\n", interval, *id)
}
