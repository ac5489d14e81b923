package jobs

import (
	"reflect"
	"testing"
)

func sampleCatalog() *Requisitions {
	return &Requisitions{Items: []*Requisition{
		{ID: "1", Title: "CNC Operator", Status: "active", Sector: "Manufacturing", SalaryHourly: 21.5},
		{ID: "2", Title: "Forklift Driver", Status: "Inactive", Sector: "Logistics"},
		{ID: "3", Title: "Assembler", Sector: "Manufacturing"},
		{ID: "4", Title: "Welder", Status: " ACTIVE "},
	}}
}

func TestRequisitionsActive(t *testing.T) {
	active := sampleCatalog().Active()

	if got, want := active.IDs(), []string{"1", "3", "4"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected active ids: got %v want %v", got, want)
	}
}

func TestRequisitionsFindByID(t *testing.T) {
	catalog := sampleCatalog()

	if r := catalog.FindByID("2"); r == nil || r.Title != "Forklift Driver" {
		t.Fatalf("unexpected requisition: %+v", r)
	}
	if r := catalog.FindByID("missing"); r != nil {
		t.Fatalf("expected nil, got %+v", r)
	}
}

func TestRequisitionsOnly(t *testing.T) {
	catalog := sampleCatalog()

	unknown := catalog.Only([]string{"3", "9", "1"})

	if !reflect.DeepEqual(unknown, []string{"9"}) {
		t.Fatalf("unexpected unknown ids: %v", unknown)
	}
	if got := catalog.IDs(); !reflect.DeepEqual(got, []string{"3", "1"}) {
		t.Fatalf("unexpected kept ids: %v", got)
	}
}

func TestRequisitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Requisition
		wantErr bool
	}{
		{name: "valid", req: &Requisition{ID: "1", Title: "Welder"}},
		{name: "nil", req: nil, wantErr: true},
		{name: "missing id", req: &Requisition{Title: "Welder"}, wantErr: true},
		{name: "missing title", req: &Requisition{ID: "1", Title: "  "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
		})
	}
}

func TestReportBySector(t *testing.T) {
	report := sampleCatalog().ReportBySector()

	manufacturing := report["Manufacturing"]
	if len(manufacturing) != 2 {
		t.Fatalf("expected 2 manufacturing entries, got %d", len(manufacturing))
	}
	if manufacturing[0]["pay"] != "21.50" {
		t.Fatalf("unexpected pay: %q", manufacturing[0]["pay"])
	}
	if manufacturing[1]["pay"] != "Not specified" {
		t.Fatalf("unexpected pay placeholder: %q", manufacturing[1]["pay"])
	}
	if _, ok := report["Not specified"]; !ok {
		t.Fatalf("expected a bucket for requisitions without sector")
	}
}
