package export

import (
	"testing"

	"gofinances/internal/core"
)

func TestBuildRows(t *testing.T) {
	snap := core.Snapshot{
		Transactions: []core.Transaction{
			{Title: "Salary", Kind: core.Income, Category: core.Category{Title: "Job"},
				DisplayValue: "R$ 5.000,00", DisplayDate: "05/01/2024"},
			{Title: "Rent", Kind: core.Outcome, Category: core.Category{Title: "Housing"},
				DisplayValue: "- R$ 1.200,00", DisplayDate: "06/01/2024"},
		},
		Balance: core.Balance{Income: "R$ 5.000,00", Outcome: "R$ 1.200,00", Total: "R$ 3.800,00"},
	}

	rows := buildRows(snap)

	// header + 2 transactions + separator + 3 balance rows
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Salary" || rows[1][4] != "R$ 5.000,00" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][3] != "outcome" {
		t.Errorf("second row = %v", rows[2])
	}
	if rows[6][0] != "Total" || rows[6][1] != "R$ 3.800,00" {
		t.Errorf("total row = %v", rows[6])
	}
}

func TestBuildRowsEmptySnapshot(t *testing.T) {
	rows := buildRows(core.Snapshot{})
	if len(rows) != 5 {
		t.Fatalf("expected header plus balance block, got %d rows", len(rows))
	}
}
