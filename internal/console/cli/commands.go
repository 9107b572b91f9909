package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avetikov/ledgersync/internal/common"
	"github.com/avetikov/ledgersync/internal/record"
	"github.com/avetikov/ledgersync/internal/store"
	"github.com/google/uuid"
)

// collection validates a user-supplied collection name against the ones
// this session's role may work with.
func (a *App) collection(name string) (record.CollectionSpec, error) {
	for _, col := range record.CollectionsFor(a.sess.Role) {
		if col.Name == name {
			return col, nil
		}
	}
	return record.CollectionSpec{}, fmt.Errorf("unknown collection %q for role %s", name, a.sess.Role)
}

func (a *App) sync(ctx context.Context) {
	if !a.isOnline() {
		fmt.Println("Offline: the cloud document store is unreachable.")
		return
	}

	report, err := a.engine.SyncNow(ctx, *a.sess)
	if err != nil {
		if errors.Is(err, common.ErrSyncBusy) {
			fmt.Println("A sync is already running.")
			return
		}
		log.Printf("Error: %s", err.Error())
		return
	}

	for _, c := range report.PerCollection {
		if c.Inserted+c.Updated+c.Purged == 0 {
			continue
		}
		fmt.Printf("%-12s +%d ~%d -%d\n", c.Name, c.Inserted, c.Updated, c.Purged)
	}
	for _, e := range report.Errors {
		fmt.Printf("%-12s failed: %s\n", e.Collection, e.Err)
	}
	fmt.Printf("Done in %s.\n", report.Duration.Round(time.Millisecond))
}

func (a *App) status(ctx context.Context) {
	st := a.engine.Status()
	if st.InFlight {
		fmt.Println("Sync in progress.")
		return
	}
	if st.LastSync.IsZero() {
		last, err := a.store.GetMeta(ctx, store.MetaLastSyncTime)
		if err != nil || last == "" {
			fmt.Println("Never synced.")
			return
		}
		fmt.Println("Last synced:", last)
		return
	}
	fmt.Println("Last synced:", st.LastSync.Format("2006-01-02 15:04:05"))
	if st.LastReport != nil && len(st.LastReport.Errors) > 0 {
		fmt.Printf("Previous run had %d failing collection(s).\n", len(st.LastReport.Errors))
	}
}

func (a *App) list(ctx context.Context, name string) {
	col, err := a.collection(name)
	if err != nil {
		fmt.Println(err)
		return
	}

	records, err := a.store.GetAll(ctx, col.Name, false)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	for _, r := range records {
		marker := " "
		if !r.Synced {
			marker = "*"
		}
		fmt.Printf("%s %-20s %v\n", marker, r.ID, summarize(r.Payload))
	}
	fmt.Printf("%d record(s).\n", len(records))
}

func (a *App) show(ctx context.Context, name, id string) {
	col, err := a.collection(name)
	if err != nil {
		fmt.Println(err)
		return
	}

	r, err := a.store.GetByID(ctx, col.Name, record.NewID(id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("Not found.")
			return
		}
		log.Printf("Error: %s", err.Error())
		return
	}

	b, err := json.MarshalIndent(r.Payload, "", "  ")
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println(string(b))
	fmt.Println("updated:", r.UpdatedAt, "synced:", r.Synced)
}

// add creates a local document that a future upload facility can push.
// Offline-created documents get a UUID key so they can never collide with
// cloud-assigned identifiers.
func (a *App) add(ctx context.Context, name string) {
	col, err := a.collection(name)
	if err != nil {
		fmt.Println(err)
		return
	}

	payload, err := GetFields(a.reader, os.Stdout)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	owner := ""
	if col.Scoped() && !a.sess.Privileged() {
		owner = a.sess.IdentityID
		payload[col.OwnerField] = owner
	}

	id := record.NewID(uuid.NewString())
	if err := a.store.InsertKeyed(ctx, col.Name, id, payload, owner); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Created", id)
}

func (a *App) delete(ctx context.Context, name, id string) {
	col, err := a.collection(name)
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := a.store.SoftDelete(ctx, col.Name, record.NewID(id)); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			fmt.Println("Not found.")
			return
		}
		log.Printf("Error: %s", err.Error())
		return
	}
	fmt.Println("Deleted", id)
}

// summarize renders a short single-line view of a payload for listings.
func summarize(payload map[string]any) string {
	for _, key := range []string{"name", "title", "date"} {
		if v, ok := payload[key]; ok {
			return fmt.Sprint(v)
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	if len(b) > 60 {
		return string(b[:57]) + "..."
	}
	return string(b)
}
