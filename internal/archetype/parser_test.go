package archetype

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/model"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParse_VitalsCluster(t *testing.T) {
	schema, err := Parse(readFixture(t, "openEHR-EHR-CLUSTER.vitals.v1.xml"), "openEHR-EHR-CLUSTER.vitals.v1.xml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := model.Schema{{
		Kind:   model.KindCluster,
		Name:   "at0000",
		Label:  "Vital signs",
		RMType: "CLUSTER",
		Children: []model.FieldNode{
			{Kind: model.KindText, Name: "at0001", Label: "Comment", RMType: "DV_TEXT"},
			{Kind: model.KindNumber, Name: "at0002", Label: "Weight", Units: "kg", RMType: "DV_QUANTITY"},
			{Kind: model.KindDateTime, Name: "at0003", Label: "Recorded at", RMType: "DV_DATE_TIME"},
			{Kind: model.KindDate, Name: "at0004", Label: "Birth date", RMType: "DV_DATE"},
			{Kind: model.KindNumber, Name: "at0005", Label: "Pulse count", RMType: "DV_COUNT", Step: 1},
			{Kind: model.KindBoolean, Name: "at0006", Label: "Fasting", RMType: "DV_BOOLEAN"},
			{Kind: model.KindChoice, Name: "at0007", Label: "Position", RMType: "DV_CODED_TEXT", Options: []model.Option{
				{Value: "at0008", Label: "Sitting"},
				{Value: "at0009", Label: "Standing"},
			}},
			{Kind: model.KindUnknown, RawKind: "DV_MULTIMEDIA", Name: "at0010", Label: "Photo", RMType: "DV_MULTIMEDIA"},
			{Kind: model.KindUnknown, RawKind: "unsupported_element", Name: "at0011", Label: "at0011", RMType: "ELEMENT"},
			{Kind: model.KindCluster, Name: "at0012", Label: "Device", RMType: "CLUSTER", Children: []model.FieldNode{
				{Kind: model.KindText, Name: "at0013", Label: "Serial number", RMType: "DV_TEXT"},
			}},
			{
				Kind:               model.KindSlot,
				Name:               "at0014",
				Label:              "Device details",
				RMType:             "CLUSTER",
				AllowedPlaceholder: `archetype_id/value matches {/openEHR-EHR-CLUSTER\.device(-[a-zA-Z0-9_]+)*\.v1/}`,
			},
			{Kind: model.KindSlot, Name: "at0015", Label: "at0015", RMType: "CLUSTER", AllowedPlaceholder: "any"},
		},
	}}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	if err := model.Validate(schema); err != nil {
		t.Fatalf("parsed schema should validate: %v", err)
	}
}

func TestParse_GenericRootLabelFallsBackToFileName(t *testing.T) {
	path := filepath.Join("nested", "openEHR-EHR-CLUSTER.anatomical_location.v1.xml")
	schema, err := Parse(readFixture(t, path), filepath.Join("testdata", path))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := schema[0].Label; got != "openEHR-EHR-CLUSTER.anatomical_location.v1.xml" {
		t.Fatalf("root label = %q", got)
	}
}

func TestParse_NoFields(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
	}{
		{name: "non cluster root", fixture: "openEHR-EHR-OBSERVATION.blood_pressure.v2.xml"},
		{name: "cluster without items", fixture: "openEHR-EHR-CLUSTER.empty.v0.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(readFixture(t, tt.fixture), tt.fixture)
			if !errors.Is(err, ErrNoFields) {
				t.Fatalf("expected ErrNoFields, got %v", err)
			}
		})
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse(readFixture(t, "broken.xml"), "broken.xml")
	if err == nil || errors.Is(err, ErrNoFields) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		fixture string
		want    Header
	}{
		{
			fixture: "openEHR-EHR-CLUSTER.vitals.v1.xml",
			want:    Header{ID: "openEHR-EHR-CLUSTER.vitals.v1", Name: "Vital signs", Concept: "at0000"},
		},
		{
			fixture: "openEHR-EHR-CLUSTER.empty.v0.xml",
			want:    Header{ID: "openEHR-EHR-CLUSTER.empty.v0", Name: "Amas vide", Concept: "at0000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			got, err := ParseHeader(readFixture(t, tt.fixture))
			if err != nil {
				t.Fatalf("parse header: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("header mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseHeader_MissingID(t *testing.T) {
	_, err := ParseHeader([]byte(`<archetype><concept>at0000</concept></archetype>`))
	if !errors.Is(err, ErrNoID) {
		t.Fatalf("expected ErrNoID, got %v", err)
	}
}

func TestParseHeader_NameFallsBackToID(t *testing.T) {
	got, err := ParseHeader([]byte(`<archetype><archetype_id><value>x.v1</value></archetype_id><concept>at0000</concept></archetype>`))
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	if got.Name != "x.v1" {
		t.Fatalf("name = %q", got.Name)
	}
}
