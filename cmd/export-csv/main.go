package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"modpanel/internal/audit"
	"modpanel/internal/pipeline"
	"modpanel/internal/repository"
	"modpanel/pkg/database"
	"modpanel/pkg/utils"
)

func main() {
	var (
		commentsOut = flag.String("comments", "data/comments.csv", "output CSV path for the comment snapshot")
		auditOut    = flag.String("audit", "data/audit.csv", "output CSV path for the audit trail")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repoCfg := utils.LoadRepositoryConfig()
	client := repository.NewClient(repoCfg.Endpoint, repoCfg.Token)

	if err := exportComments(ctx, client, repoCfg.Lang, *commentsOut); err != nil {
		log.Fatalf("export comments failed: %v", err)
	}
	if err := exportAudit(ctx, db, *auditOut); err != nil {
		log.Fatalf("export audit failed: %v", err)
	}

	log.Printf("exported comments to %s and audit trail to %s", *commentsOut, *auditOut)
}

func exportComments(ctx context.Context, client *repository.Client, lang, outPath string) error {
	nodes, err := client.FetchComments(ctx, lang)
	if err != nil {
		return err
	}
	records := pipeline.Normalize(nodes)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "parent_id", "author", "status", "date", "time", "body"}); err != nil {
		return err
	}

	for _, r := range records {
		date, clock := pipeline.FormatDateTime(r.Created)
		if err := w.Write([]string{
			r.ID,
			r.ParentID,
			r.Author,
			r.Status,
			date,
			clock,
			r.Body,
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func exportAudit(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "actor", "action", "comment_id", "parent_id", "old_status", "new_status", "at"}); err != nil {
		return err
	}

	repo := audit.NewRepo(db)
	const page = 200
	for offset := 0; ; offset += page {
		entries, total, err := repo.List(ctx, page, offset)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := w.Write([]string{
				strconv.FormatInt(e.ID, 10),
				e.Actor,
				e.Action,
				e.CommentID,
				e.ParentID,
				e.OldStatus,
				e.NewStatus,
				e.At.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		if offset+page >= total || len(entries) == 0 {
			break
		}
	}

	w.Flush()
	return w.Error()
}
