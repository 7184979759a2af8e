// Package seeder populates the database with demo owners, portfolio
// content and a realistic spread of tracking events. Used by pmctl.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/portfolio"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/users"
)

const historyDays = 14

// Seeder handles the demo data seeding process.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

type demoOwner struct {
	username string
	email    string
	fullName string
	headline string
	skills   string
	projects []string
}

var demoOwners = []demoOwner{
	{
		username: "demo-ava",
		email:    "ava@demo.local",
		fullName: "Ava Carter",
		headline: "Backend Engineer",
		skills:   "Go, SQLite, Distributed Systems",
		projects: []string{"Task Queue", "Rate Limiter", "Log Shipper"},
	},
	{
		username: "demo-noah",
		email:    "noah@demo.local",
		fullName: "Noah Kim",
		headline: "Frontend Developer",
		skills:   "TypeScript, React, CSS",
		projects: []string{"Design System", "Portfolio Theme"},
	},
	{
		username: "demo-mia",
		email:    "mia@demo.local",
		fullName: "Mia Okafor",
		headline: "Data Engineer",
		skills:   "Python, Spark, Airflow",
		projects: []string{"ETL Pipeline"},
	},
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Run seeds demo owners with portfolio content and tracking events,
// then runs an aggregation pass so the dashboards have numbers to show.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding demo data...", slog.Int("eventCount", s.EventCount))

	db := s.DBManager.GetConnection()

	perOwner := s.EventCount / len(demoOwners)
	for _, demo := range demoOwners {
		if err := ctx.Err(); err != nil {
			return err
		}

		owner, err := s.seedOwner(db, demo)
		if err != nil {
			return fmt.Errorf("failed to seed owner %s: %w", demo.username, err)
		}

		if err := s.generateEvents(ctx, db, demo, owner, perOwner); err != nil {
			return fmt.Errorf("failed to generate events for %s: %w", demo.username, err)
		}

		if err := analytics.AggregateForOwner(db, s.Logger, owner.ID); err != nil {
			return fmt.Errorf("failed to aggregate for %s: %w", demo.username, err)
		}
	}

	s.Logger.Info("Seeding completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// SeedOwner seeds events for one existing owner, identified by username.
func (s *Seeder) SeedOwner(ctx context.Context, username string) error {
	db := s.DBManager.GetConnection()

	owner, err := users.FindByUsername(db, username)
	if err != nil {
		return fmt.Errorf("owner lookup failed: %w", err)
	}

	demo := demoOwner{username: owner.Username}
	if err := s.generateEvents(ctx, db, demo, owner, s.EventCount); err != nil {
		return err
	}
	return analytics.AggregateForOwner(db, s.Logger, owner.ID)
}

func (s *Seeder) seedOwner(db *gorm.DB, demo demoOwner) (*users.User, error) {
	owner, err := users.CreateUser(db, demo.username, demo.email, "password123")
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			s.Logger.Info("Owner already exists, reusing", slog.String("username", demo.username))
			return users.FindByUsername(db, demo.username)
		}
		return nil, err
	}

	err = sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		profile := &portfolio.Profile{
			UserID:   owner.ID,
			FullName: demo.fullName,
			Headline: demo.headline,
			Summary:  fmt.Sprintf("%s based in Demo City.", demo.headline),
			Skills:   demo.skills,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		for _, title := range demo.projects {
			project := &portfolio.Project{
				UserID:      owner.ID,
				Title:       title,
				Description: fmt.Sprintf("Demo project: %s.", title),
			}
			if err := tx.Create(project).Error; err != nil {
				return err
			}
		}
		education := &portfolio.Education{
			UserID:      owner.ID,
			Institution: "Demo University",
			Degree:      "B.Sc. Computer Science",
			StartDate:   time.Now().AddDate(-6, 0, 0),
		}
		return tx.Create(education).Error
	})
	if err != nil {
		return nil, err
	}

	return owner, nil
}

// generateEvents writes historical sessions directly to the ledger with
// back-dated timestamps (the ingestion pipeline stamps write time, so
// history has to bypass it), then pushes today's sessions through the
// real pipeline to exercise its validation and window guards.
func (s *Seeder) generateEvents(ctx context.Context, db *gorm.DB, demo demoOwner, owner *users.User, count int) error {
	if count <= 0 {
		return nil
	}

	todayShare := count / historyDays
	historical := count - todayShare

	created := 0
	for created < historical {
		if err := ctx.Err(); err != nil {
			return err
		}

		daysAgo := 1 + rand.IntN(historyDays-1)
		sessionStart := time.Now().UTC().
			AddDate(0, 0, -daysAgo).
			Add(-time.Duration(rand.IntN(12)) * time.Hour)

		visitorID := uuid.NewString()
		userAgent := seedUserAgents[rand.IntN(len(seedUserAgents))]

		view := &analytics.TrackingEvent{
			OwnerID:   owner.ID,
			VisitorID: visitorID,
			EventType: analytics.EventTypeView,
			UserAgent: userAgent,
			CreatedAt: sessionStart,
		}
		duration := 5 + rand.IntN(120)
		view.DurationSeconds = &duration

		err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
			if err := tx.Create(view).Error; err != nil {
				return err
			}
			created++

			// Roughly 40% of visitors stick around long enough to engage.
			if rand.IntN(10) < 4 {
				engagedDuration := 30 + rand.IntN(300)
				scrollDepth := 50 + rand.IntN(51)
				engaged := &analytics.TrackingEvent{
					OwnerID:         owner.ID,
					VisitorID:       visitorID,
					EventType:       analytics.EventTypeEngaged,
					DurationSeconds: &engagedDuration,
					ScrollDepth:     &scrollDepth,
					UserAgent:       userAgent,
					CreatedAt:       sessionStart.Add(time.Duration(engagedDuration) * time.Second),
				}
				if err := tx.Create(engaged).Error; err != nil {
					return err
				}
				created++
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	// Today's traffic goes through the collector.
	for i := 0; i < todayShare; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		visitorID := uuid.NewString()
		userAgent := seedUserAgents[rand.IntN(len(seedUserAgents))]
		duration := 5 + rand.IntN(120)

		analytics.TrackEvent(db, s.Logger, &analytics.TrackEventInput{
			OwnerUsername:   owner.Username,
			EventType:       "VIEW",
			DurationSeconds: &duration,
			VisitorID:       visitorID,
			UserAgent:       userAgent,
		})

		if rand.IntN(10) < 4 {
			engagedDuration := 30 + rand.IntN(300)
			scrollDepth := 50 + rand.IntN(51)
			analytics.TrackEvent(db, s.Logger, &analytics.TrackEventInput{
				OwnerUsername:   owner.Username,
				EventType:       "ENGAGED",
				DurationSeconds: &engagedDuration,
				ScrollDepth:     &scrollDepth,
				VisitorID:       visitorID,
				UserAgent:       userAgent,
			})
		}
	}

	s.Logger.Info("Generated events",
		slog.String("username", owner.Username),
		slog.Int("count", count))
	return nil
}
