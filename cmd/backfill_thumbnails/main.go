// Command backfill_thumbnails walks portal files without a thumbnail and
// generates one for each, sequentially, with the same pacing the API route
// uses. Intended for one-off runs after imports or pipeline changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/app"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func main() {
	var ownerFlag string
	var force bool
	flag.StringVar(&ownerFlag, "owner", "", "restrict to one owner's files (uuid)")
	flag.BoolVar(&force, "force", false, "regenerate thumbnails that already exist")
	flag.Parse()

	var ownerID uuid.UUID
	if s := strings.TrimSpace(ownerFlag); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			fmt.Printf("invalid -owner value %q: %v\n", s, err)
			os.Exit(1)
		}
		ownerID = id
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: context.Background()}
	summary, err := application.Services.Backfill.Run(dbc, ownerID, force)
	if err != nil {
		fmt.Printf("backfill: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("processed=%d succeeded=%d failed=%d\n",
		summary.Processed, summary.Succeeded, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
