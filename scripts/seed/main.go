// Command seed loads a term's reference data into Postgres so the API
// has a catalog to seal at startup. The input file carries subjects,
// instructors, rooms, time slots, projects and planner accounts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type seedFile struct {
	TermLabel string `json:"term_label"`
	Subjects  []struct {
		ID                 string `json:"id"`
		Code               string `json:"code"`
		Name               string `json:"name"`
		WeeklyHours        int    `json:"weekly_hours"`
		SectionCount       int    `json:"section_count"`
		ExpectedEnrollment int    `json:"expected_enrollment"`
	} `json:"subjects"`
	Instructors []struct {
		ID            string   `json:"id"`
		FullName      string   `json:"full_name"`
		MaxWeeklyLoad int      `json:"max_weekly_load"`
		Availability  []string `json:"availability"`
	} `json:"instructors"`
	Rooms []struct {
		ID           string   `json:"id"`
		Capacity     int      `json:"capacity"`
		Equipment    []string `json:"equipment"`
		Availability []string `json:"availability"`
	} `json:"rooms"`
	TimeSlots []struct {
		ID    string `json:"id"`
		Day   int    `json:"day"`
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"time_slots"`
	Projects []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Status  string `json:"status"`
		Members int    `json:"members"`
	} `json:"projects"`
	Users []struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	} `json:"users"`
}

func main() {
	var (
		dsn     string
		path    string
		timeout time.Duration
	)
	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.StringVar(&path, "file", "scripts/seed/term.json", "Path to JSON seed file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read seed file: %v", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("failed to parse seed file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Fatalf("failed to begin tx: %v", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, slot := range seed.TimeSlots {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO time_slots (id, day, start_at, end_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET day = $2, start_at = $3, end_at = $4`,
			slot.ID, slot.Day, slot.Start, slot.End); err != nil {
			log.Fatalf("failed to seed time slot %s: %v", slot.ID, err)
		}
	}
	for _, subject := range seed.Subjects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subjects (id, code, name, weekly_hours, section_count, expected_enrollment, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET code = $2, name = $3, weekly_hours = $4, section_count = $5, expected_enrollment = $6`,
			subject.ID, subject.Code, subject.Name, subject.WeeklyHours, subject.SectionCount, subject.ExpectedEnrollment, now); err != nil {
			log.Fatalf("failed to seed subject %s: %v", subject.ID, err)
		}
	}
	for _, instructor := range seed.Instructors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO instructors (id, full_name, max_weekly_load, availability, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET full_name = $2, max_weekly_load = $3, availability = $4`,
			instructor.ID, instructor.FullName, instructor.MaxWeeklyLoad, pq.StringArray(instructor.Availability), now); err != nil {
			log.Fatalf("failed to seed instructor %s: %v", instructor.ID, err)
		}
	}
	for _, room := range seed.Rooms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (id, capacity, equipment, availability, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET capacity = $2, equipment = $3, availability = $4`,
			room.ID, room.Capacity, pq.StringArray(room.Equipment), pq.StringArray(room.Availability), now); err != nil {
			log.Fatalf("failed to seed room %s: %v", room.ID, err)
		}
	}
	for _, project := range seed.Projects {
		status := project.Status
		if status == "" {
			status = "DRAFT"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, title, term_label, status, members, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)
			 ON CONFLICT (id) DO UPDATE SET title = $2, term_label = $3, status = $4, members = $5, updated_at = $6`,
			project.ID, project.Title, seed.TermLabel, status, project.Members, now); err != nil {
			log.Fatalf("failed to seed project %s: %v", project.ID, err)
		}
	}
	for _, user := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash password for %s: %v", user.Email, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
			 ON CONFLICT (email) DO UPDATE SET password_hash = $3, full_name = $4, role = $5`,
			uuid.NewString(), user.Email, string(hash), user.FullName, user.Role, now); err != nil {
			log.Fatalf("failed to seed user %s: %v", user.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("failed to commit seed: %v", err)
	}

	log.Printf("seeded term %s: %d subjects, %d instructors, %d rooms, %d slots, %d projects, %d users",
		seed.TermLabel, len(seed.Subjects), len(seed.Instructors), len(seed.Rooms), len(seed.TimeSlots), len(seed.Projects), len(seed.Users))
}
