package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	gommonlog "github.com/labstack/gommon/log"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/db"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/events"
	"taskmanager/internal/repository"
	"taskmanager/internal/service"
)

// SeedUser is one entry of the seed fixture.
type SeedUser struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Tasks    []SeedTask `json:"tasks"`
}

// SeedTask is a task to create for its SeedUser.
type SeedTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func main() {
	source := flag.String("file", os.Getenv("SEED_FILE"), "path or http(s) URL of the JSON seed fixture")
	flag.Parse()
	if *source == "" {
		log.Fatal("no seed fixture given; use -file or SEED_FILE")
	}

	log.Println("Starting seed script...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(context.Background(), cfg, *source); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
}

// run owns the database handle so it is closed before main exits on error.
func run(ctx context.Context, cfg *config.Config, source string) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Database migrations completed")

	log.Printf("Loading fixture from: %s", source)
	users, err := loadFixture(source)
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}
	log.Printf("Loaded %d users", len(users))

	authService := service.NewAuthService(repository.NewUserRepository(gormDB), auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL), auth.NewTokenStore(nil))
	taskService := service.NewTaskService(repository.NewTaskRepository(gormDB), events.NopPublisher{}, gommonlog.New("seed"))

	created, skipped, tasks, err := seed(ctx, authService, taskService, users)
	if err != nil {
		return err
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New users created: %d", created)
	log.Printf("  - Existing users skipped: %d", skipped)
	log.Printf("  - Tasks created: %d", tasks)
	return nil
}

// loadFixture reads the fixture from a local file or an http(s) URL.
func loadFixture(source string) ([]SeedUser, error) {
	var body []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = fetch(source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var users []SeedUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return users, nil
}

func fetch(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixture server returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// seed registers every user that does not exist yet and creates their tasks.
// Users whose email is already registered are skipped along with their tasks,
// so running the seed twice does not duplicate data.
func seed(
	ctx context.Context,
	authService service.AuthService,
	taskService service.TaskService,
	users []SeedUser,
) (created, skipped, tasks int, err error) {
	for _, u := range users {
		user, err := authService.Register(ctx, u.Name, u.Email, u.Password)
		if errors.Is(err, apperrors.ErrEmailAlreadyRegistered) {
			log.Printf("Skipping existing user: %s", u.Email)
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, tasks, fmt.Errorf("error registering %s: %w", u.Email, err)
		}
		created++

		for _, t := range u.Tasks {
			if _, err := taskService.Create(ctx, user.ID, service.TaskInput{Title: t.Title, Description: t.Description}); err != nil {
				return created, skipped, tasks, fmt.Errorf("error creating task %q for %s: %w", t.Title, u.Email, err)
			}
			tasks++
		}
	}
	return created, skipped, tasks, nil
}
