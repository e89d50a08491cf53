package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/config"
	"github.com/locallib/catalog/internal/database"
	"github.com/locallib/catalog/internal/entities"
)

// SeedDemoCommand fills a fresh database with a small demo catalog so the
// site has something to show right after install.
type SeedDemoCommand struct {
	DatabasePath string
	Verbose      bool
}

func NewSeedDemoCommand() *SeedDemoCommand {
	return &SeedDemoCommand{}
}

func (cmd *SeedDemoCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-demo [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the catalog with demo genres, authors, books and copies.\n")
		fmt.Fprintf(os.Stderr, "Existing records are left untouched; the command refuses to run against\n")
		fmt.Fprintf(os.Stderr, "a database that already holds books.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedDemoCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var bookCount int64
	if err := db.DB.Model(&entities.Book{}).Count(&bookCount).Error; err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if bookCount > 0 {
		return fmt.Errorf("database already contains %d books, refusing to seed", bookCount)
	}

	genres := []entities.Genre{
		{Name: "Science Fiction"},
		{Name: "Fantasy"},
		{Name: "romance"},
		{Name: "French Poetry"},
	}
	for i := range genres {
		if err := db.DB.Create(&genres[i]).Error; err != nil {
			return fmt.Errorf("failed to create genre %q: %w", genres[i].Name, err)
		}
		cmd.logf("Created genre %q", genres[i].Name)
	}

	authors := []entities.Author{
		{FirstName: "Patrick", LastName: "Rothfuss", DateOfBirth: date(1973, 6, 6)},
		{FirstName: "Ben", LastName: "Bova", DateOfBirth: date(1932, 11, 8)},
		{FirstName: "Isaac", LastName: "Asimov", DateOfBirth: date(1920, 1, 2), DateOfDeath: date(1992, 4, 6)},
		{FirstName: "Jim", LastName: "Jones", DateOfBirth: date(1971, 12, 16)},
	}
	for i := range authors {
		if err := db.DB.Create(&authors[i]).Error; err != nil {
			return fmt.Errorf("failed to create author: %w", err)
		}
		cmd.logf("Created author %s", authors[i].DisplayName())
	}

	books := []entities.Book{
		{
			Title:    "The Name of the Wind",
			AuthorID: &authors[0].ID,
			Summary:  "The tale of the magically gifted young man who grows to be the most notorious wizard his world has ever seen.",
			ISBN:     "9780756404741",
			Language: "English",
			Genres:   []entities.Genre{genres[1]},
		},
		{
			Title:    "The Ones Who Walk Away From Omelas",
			AuthorID: &authors[1].ID,
			Summary:  "With deliberately simple prose, a psychomyth about the utopian city of Omelas.",
			ISBN:     "9781857989359",
			Language: "English",
			Genres:   []entities.Genre{genres[0]},
		},
		{
			Title:    "I, Robot",
			AuthorID: &authors[2].ID,
			Summary:  "Nine stories chronicling the development of robotics and the Three Laws.",
			ISBN:     "9780553294385",
			Language: "English",
			Genres:   []entities.Genre{genres[0]},
		},
		{
			Title:    "The Shining Ones",
			AuthorID: &authors[3].ID,
			Summary:  "A thriller of first contact beneath the ocean.",
			ISBN:     "9780340728222",
			Language: "English",
			Genres:   []entities.Genre{genres[0], genres[2]},
		},
	}
	for i := range books {
		if err := db.DB.Create(&books[i]).Error; err != nil {
			return fmt.Errorf("failed to create book %q: %w", books[i].Title, err)
		}
		cmd.logf("Created book %q", books[i].Title)
	}

	statuses := []entities.LoanStatus{
		entities.StatusAvailable,
		entities.StatusOnLoan,
		entities.StatusMaintenance,
		entities.StatusReserved,
	}
	for i, book := range books {
		for c := 0; c < 2; c++ {
			instance := entities.BookInstance{
				BookID:  book.ID,
				Imprint: fmt.Sprintf("Demo Imprint, %d", 2016+i),
				Status:  statuses[(i+c)%len(statuses)],
			}
			if instance.Status == entities.StatusOnLoan {
				due := time.Now().AddDate(0, 0, 7*(c+1))
				instance.DueBack = &due
			}
			if err := db.DB.Create(&instance).Error; err != nil {
				return fmt.Errorf("failed to create copy of %q: %w", book.Title, err)
			}
			cmd.logf("Created copy %s", instance.ID)
		}
	}

	hasUsers, err := auth.NewService(db.DB, config.NewConfig().Auth).HasUsers()
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if !hasUsers {
		fmt.Println("No user accounts exist yet. Start the server and visit /setup to create one.")
	}

	fmt.Printf("Seeded %d genres, %d authors, %d books and %d copies.\n",
		len(genres), len(authors), len(books), len(books)*2)
	return nil
}

func (cmd *SeedDemoCommand) logf(format string, args ...any) {
	if cmd.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
