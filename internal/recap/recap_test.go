package recap_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jensholdgaard/draft-tracker/internal/recap"
	"github.com/jensholdgaard/draft-tracker/internal/refdata"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

func testCatalog(t *testing.T) *refdata.Catalog {
	t.Helper()
	dir := t.TempDir()

	players, _ := json.Marshal([]refdata.Player{
		{ID: 1, FirstName: "Justin", LastName: "Jefferson", Team: "MIN", Position: refdata.PositionWR},
		{ID: 2, FirstName: "Christian", LastName: "McCaffrey", Team: "SF", Position: refdata.PositionRB},
	})
	owners, _ := json.Marshal([]refdata.Owner{
		{ID: 1, OwnerName: "Alice", TeamName: "Aces"},
	})
	if err := os.WriteFile(filepath.Join(dir, "players.json"), players, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "owners.json"), owners, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := refdata.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestWriteCSV(t *testing.T) {
	state := &store.DraftState{
		Teams: []store.Team{
			{
				OwnerID:         1,
				BudgetRemaining: 150,
				Picks: []store.DraftPick{
					{PickID: 2, PlayerID: 2, OwnerID: 1, Price: 30},
					{PickID: 1, PlayerID: 1, OwnerID: 1, Price: 20},
				},
			},
			{
				// Owner and player missing from the catalogs.
				OwnerID:         9,
				BudgetRemaining: 195,
				Picks: []store.DraftPick{
					{PickID: 3, PlayerID: 77, OwnerID: 9, Price: 5},
				},
			},
		},
		Version: 4,
	}

	var buf bytes.Buffer
	if err := recap.WriteCSV(&buf, state, testCatalog(t)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	want := [][]string{
		{"pick_id", "owner", "team_name", "player", "position", "nfl_team", "price", "budget_remaining"},
		{"1", "Alice", "Aces", "Justin Jefferson", "WR", "MIN", "20", "150"},
		{"2", "Alice", "Aces", "Christian McCaffrey", "RB", "SF", "30", "150"},
		{"3", "owner 9", "", "player 77", "", "", "5", "195"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records =\n%v\nwant\n%v", records, want)
	}
}

func TestWriteCSV_NoPicks(t *testing.T) {
	var buf bytes.Buffer
	state := &store.DraftState{Teams: []store.Team{}, Version: 1}

	if err := recap.WriteCSV(&buf, state, testCatalog(t)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("record count = %d, want header only", len(records))
	}
}
