package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/mbaxter/flashdeck/internal/config"
	"github.com/mbaxter/flashdeck/internal/logger"
	"github.com/mbaxter/flashdeck/internal/scheduler"
	"github.com/mbaxter/flashdeck/internal/services"
	"github.com/mbaxter/flashdeck/internal/store"
)

func main() {
	cfg := config.Load()

	decksDir := flag.StringP("decks-dir", "d", cfg.DecksDir, "directory containing deck files")
	importCSV := flag.StringP("import", "i", "", "import cards from a CSV file")
	importFolder := flag.StringP("import-folder", "f", "", "import all CSV files from a folder")
	importName := flag.String("import-name", "Imported Deck", "name for the imported deck")
	importAnki := flag.StringP("import-anki", "a", "", "import from an Anki export (.apkg or tab-separated text)")
	importAnkiName := flag.String("import-anki-name", "", "name for Anki text imports (ignored for .apkg)")
	exportAnki := flag.StringP("export-anki", "A", "", "export all decks to an Anki .apkg file")
	exportBackup := flag.StringP("export-backup", "x", "", "export all decks to a backup file")
	importBackup := flag.StringP("import-backup", "b", "", "import decks from a backup file")
	listDecks := flag.BoolP("list", "l", false, "list decks and exit")
	dueDeck := flag.String("due", "", "show what is due in the given deck")
	flag.Parse()

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	st, err := store.Open(*decksDir)
	if err != nil {
		log.Error("failed to open deck store: %v", err)
		os.Exit(1)
	}

	params := scheduler.DefaultParams()
	params.HardQuality = cfg.HardQuality
	limits := services.SessionLimits{
		NewCards: cfg.NewCardsPerSession,
		Reviews:  cfg.ReviewLimit,
	}

	transfer := services.NewTransferService(st)
	review := services.NewReviewService(st, params, limits)

	ctx := logger.NewContext(context.Background(), log)

	switch {
	case *importCSV != "":
		deck, err := transfer.ImportCSVFile(ctx, *importCSV, *importName)
		if err == services.ErrDeckExists {
			fmt.Printf("Skipped: deck %q already exists\n", *importName)
			return
		}
		exitOn(err)
		fmt.Printf("Imported %d cards into %q\n", len(deck.Cards), deck.Name)

	case *importFolder != "":
		result, err := transfer.ImportCSVFolder(ctx, *importFolder)
		exitOn(err)
		printImportResult(result)

	case *importAnki != "":
		result, err := transfer.ImportAnkiFile(ctx, *importAnki, *importAnkiName)
		exitOn(err)
		printImportResult(result)

	case *exportAnki != "":
		cards, err := transfer.ExportAnkiFile(ctx, *exportAnki)
		exitOn(err)
		fmt.Printf("Exported %d cards to %s (Anki format)\n", cards, *exportAnki)

	case *exportBackup != "":
		decks, err := transfer.ExportBackupFile(ctx, *exportBackup)
		exitOn(err)
		fmt.Printf("Exported %d decks to %s\n", decks, *exportBackup)

	case *importBackup != "":
		imported, skipped, err := transfer.ImportBackupFile(ctx, *importBackup)
		exitOn(err)
		if skipped > 0 {
			fmt.Printf("Imported %d decks (%d skipped - already exist)\n", imported, skipped)
		} else {
			fmt.Printf("Imported %d decks\n", imported)
		}

	case *dueDeck != "":
		printDueSummary(ctx, review, *dueDeck)

	case *listDecks:
		fallthrough
	default:
		printDeckList(ctx, st, review)
	}
}

func printDueSummary(ctx context.Context, review services.ReviewService, deckID string) {
	now := time.Now()
	stats, err := review.DeckStats(ctx, deckID, now)
	exitOn(err)
	fmt.Printf("%d due, %d new (%d cards total)\n", stats.DueCards, stats.NewCards, stats.TotalCards)

	queue, err := review.SessionQueue(ctx, deckID, now)
	exitOn(err)
	if len(queue) == 0 {
		fmt.Println("Nothing to study right now.")
		return
	}
	fmt.Printf("Session queue: %d cards, next up: %s\n", len(queue), queue[0].Front)
}

func printDeckList(ctx context.Context, st *store.Store, review services.ReviewService) {
	infos, err := st.List()
	exitOn(err)
	if len(infos) == 0 {
		fmt.Println("No decks yet. Import one with --import or --import-anki.")
		return
	}

	now := time.Now()
	for _, info := range infos {
		stats, err := review.DeckStats(ctx, info.ID, now)
		exitOn(err)
		fmt.Printf("%-10s %-30s %3d cards  %3d due  %3d new\n",
			info.ID, info.Name, stats.TotalCards, stats.DueCards, stats.NewCards)
	}
}

func printImportResult(result *services.ImportResult) {
	if len(result.Imported) == 0 && len(result.Skipped) == 0 {
		fmt.Println("Nothing to import")
		return
	}
	if len(result.Imported) > 0 {
		fmt.Printf("Imported %d deck(s):\n", len(result.Imported))
		for _, d := range result.Imported {
			fmt.Printf("  %s (%d cards)\n", d.Name, d.CardCount)
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d deck(s) (already exist):\n", len(result.Skipped))
		for _, name := range result.Skipped {
			fmt.Printf("  %s\n", name)
		}
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
