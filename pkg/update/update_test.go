package update_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookops/overload/pkg/bibs"
	"github.com/bookops/overload/pkg/errors"
	"github.com/bookops/overload/pkg/marc"
	"github.com/bookops/overload/pkg/update"
)

func catalogingBib(system bibs.System, collection bibs.Collection, vendor, callno string) *bibs.Bib {
	record := &marc.Record{
		Leader: "00000nam a2200000 i 4500",
		Fields: []marc.Field{
			marc.NewControlField("001", "on1234567890"),
			marc.NewField("245", "1", "0", marc.Subfield{Code: "a", Value: "Paw Patrol"}),
		},
	}
	if callno != "" {
		record.AddOrderedField(marc.NewField("091", " ", " ", marc.Subfield{Code: "a", Value: callno}))
	}
	bib := bibs.FromRecord(record, system)
	bib.Collection = collection
	if vendor != "" {
		bib.Vendor = &bibs.VendorInfo{Name: vendor}
	}
	return bib
}

func TestApplyCatalogingInjectsVendorFields(t *testing.T) {
	bib := catalogingBib(bibs.SystemBPL, bibs.CollectionNone, "INGRAM", "")
	bib.Vendor.BibFields = []bibs.VendorField{
		{Tag: "949", Ind1: " ", Ind2: " ", Code: "a", Value: "*b2=a;"},
	}
	engine := update.NewEngine(bibs.SystemBPL, bibs.WorkflowCataloging, bibs.CollectionNone, "")

	require.NoError(t, engine.Apply(bib, nil, "b123456789"))

	f := bib.Record.Get("949")
	require.NotNil(t, f)
	assert.Equal(t, "*b2=a;", f.Get("a"))

	id := bib.Record.Get("907")
	require.NotNil(t, id)
	assert.Equal(t, "b123456789", id.Get("a"))
	assert.Equal(t, byte('a'), bib.Record.Leader[9])
}

func TestApplySelectionCommandTagAndLocation(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewControlField("001", "1234"),
			marc.NewField("960", " ", " ", marc.Subfield{Code: "o", Value: "1"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemNYPL)
	bib.Collection = bibs.CollectionBranch
	template := &bibs.Template{
		Name:   "dvd order",
		Agent:  "selector",
		Format: "v",
		Fund:   "dvd",
		Matchpoints: bibs.Matchpoints{Primary: bibs.MatchpointUPC},
	}
	engine := update.NewEngine(bibs.SystemNYPL, bibs.WorkflowSelection, bibs.CollectionBranch, "fw")

	require.NoError(t, engine.Apply(bib, template, ""))

	command := bib.Record.Get("949")
	require.NotNil(t, command)
	assert.Equal(t, "*b2=v;bn=fw;", command.Get("a"))

	// Template data flowed into the appended order field.
	fields := bib.Record.GetFields("960")
	require.Len(t, fields, 2)
	assert.Equal(t, "dvd", fields[1].Get("u"))
}

func TestApplySelectionKeepsExistingLocation(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewField("949", " ", " ", marc.Subfield{Code: "a", Value: "*b2=v;bn=41afc;"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemBPL)
	engine := update.NewEngine(bibs.SystemBPL, bibs.WorkflowSelection, bibs.CollectionNone, "fw")

	require.NoError(t, engine.Apply(bib, &bibs.Template{Format: "v"}, ""))
	assert.Equal(t, "*b2=v;bn=41afc;", bib.Record.Get("949").Get("a"))
}

func TestApplySelectionLocationWithoutSemicolon(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewField("949", " ", " ", marc.Subfield{Code: "a", Value: "*b2=v"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemBPL)
	engine := update.NewEngine(bibs.SystemBPL, bibs.WorkflowSelection, bibs.CollectionNone, "02")

	require.NoError(t, engine.Apply(bib, nil, ""))
	assert.Equal(t, "*b2=v;bn=02;", bib.Record.Get("949").Get("a"))
}

func TestApplyAcquisitionsOverlaysTemplate(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewControlField("001", "1234"),
			marc.NewField("960", " ", " ",
				marc.Subfield{Code: "u", Value: "old"},
				marc.Subfield{Code: "v", Value: "btlea"},
			),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemBPL)
	template := &bibs.Template{Fund: "new"}
	engine := update.NewEngine(bibs.SystemBPL, bibs.WorkflowAcquisitions, bibs.CollectionNone, "")

	require.NoError(t, engine.Apply(bib, template, "b123456789"))

	fields := bib.Record.GetFields("960")
	require.Len(t, fields, 2)
	assert.Equal(t, "new", fields[1].Get("u"))
	assert.Equal(t, "btlea", fields[1].Get("v"))
}

func TestApplyNYPLRewritesCollection(t *testing.T) {
	record := &marc.Record{
		Fields: []marc.Field{
			marc.NewField("910", " ", " ", marc.Subfield{Code: "a", Value: "RL"}),
		},
	}
	bib := bibs.FromRecord(record, bibs.SystemNYPL)
	bib.Collection = bibs.CollectionBranch
	engine := update.NewEngine(bibs.SystemNYPL, bibs.WorkflowCataloging, bibs.CollectionBranch, "")
	bib.Vendor = &bibs.VendorInfo{Name: "INGRAM"}

	require.NoError(t, engine.Apply(bib, nil, "b123456789"))

	fields := bib.Record.GetFields("910")
	require.Len(t, fields, 1)
	assert.Equal(t, "BL", fields[0].Get("a"))

	id := bib.Record.Get("945")
	require.NotNil(t, id)
	assert.Equal(t, "b123456789", id.Get("a"))
}

func TestSeriesCallNumberRebuild(t *testing.T) {
	tests := []struct {
		callno    string
		subfields []marc.Subfield
	}{
		{
			callno: "J FIC PAW PATROL",
			subfields: []marc.Subfield{
				{Code: "p", Value: "J"},
				{Code: "a", Value: "FIC"},
				{Code: "c", Value: "PAW PATROL"},
			},
		},
		{
			callno: "J SPA GN FIC DOG MAN",
			subfields: []marc.Subfield{
				{Code: "p", Value: "J SPA"},
				{Code: "a", Value: "GN FIC"},
				{Code: "c", Value: "DOG MAN"},
			},
		},
		{
			callno: "J HOLIDAY PIC MOUSE",
			subfields: []marc.Subfield{
				{Code: "p", Value: "J"},
				{Code: "f", Value: "HOLIDAY"},
				{Code: "a", Value: "PIC"},
				{Code: "c", Value: "MOUSE"},
			},
		},
		{
			callno: "J E COLLECTION",
			subfields: []marc.Subfield{
				{Code: "p", Value: "J"},
				{Code: "a", Value: "E"},
				{Code: "c", Value: "COLLECTION"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.callno, func(t *testing.T) {
			bib := catalogingBib(bibs.SystemNYPL, bibs.CollectionBranch, "BT SERIES", tt.callno)
			engine := update.NewEngine(bibs.SystemNYPL, bibs.WorkflowCataloging, bibs.CollectionBranch, "")

			require.NoError(t, engine.Apply(bib, nil, ""))

			f := bib.Record.Get("091")
			require.NotNil(t, f)
			assert.Equal(t, tt.subfields, f.Subfields)
			assert.Equal(t, tt.callno, f.Value())
		})
	}
}

func TestSeriesCallNumberMismatchFailsRecord(t *testing.T) {
	// "GRAPHIC" after the classification is parsed as a format prefix, so
	// the rebuilt field cannot reproduce the original order.
	bib := catalogingBib(bibs.SystemNYPL, bibs.CollectionBranch, "BT SERIES", "FIC GRAPHIC NOVEL")
	engine := update.NewEngine(bibs.SystemNYPL, bibs.WorkflowCataloging, bibs.CollectionBranch, "")

	err := engine.Apply(bib, nil, "")
	require.Error(t, err)
	assert.True(t, errors.IsIntegrity(err))
	assert.Contains(t, err.Error(), "FIC GRAPHIC NOVEL")
	assert.Contains(t, err.Error(), "GRAPHIC FIC GRAPHIC NOVEL")
}

func TestSeriesCallNumberSkippedForOtherVendors(t *testing.T) {
	bib := catalogingBib(bibs.SystemNYPL, bibs.CollectionBranch, "INGRAM", "J FIC PAW PATROL")
	engine := update.NewEngine(bibs.SystemNYPL, bibs.WorkflowCataloging, bibs.CollectionBranch, "")

	require.NoError(t, engine.Apply(bib, nil, ""))
	f := bib.Record.Get("091")
	require.NotNil(t, f)
	// Untouched: still a single subfield a.
	assert.Equal(t, []marc.Subfield{{Code: "a", Value: "J FIC PAW PATROL"}}, f.Subfields)
}
