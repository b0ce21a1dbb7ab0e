package bibs

import (
	"github.com/bookops/overload/pkg/marc"
)

// Order is a Sierra order attached to a bib record. Fixed-field data lives
// in a 960 field; variable-field data in the 961 that follows it.
type Order struct {
	Audience     []string
	BlanketPO    string
	Branches     []string
	Copies       string
	Country      string
	CreateDate   string
	Format       string
	Fund         string
	InternalNote string
	Lang         string
	Locations    []string
	OrderCode1   string
	OrderCode2   string
	OrderCode3   string
	OrderCode4   string
	OrderID      string
	OrderType    string
	Price        string
	SelectorNote string
	Shelves      []string
	Status       string
	VarFieldISBN string
	VendorCode   string
	VendorNotes  string
	VendorTitleNo string
}

// ordersFromRecord extracts orders from a record's 960 fields, pairing each
// with the 961 that immediately follows it.
func ordersFromRecord(record *marc.Record) []Order {
	var orders []Order
	for i := range record.Fields {
		f := &record.Fields[i]
		if f.Tag != "960" {
			continue
		}
		var following *marc.Field
		if i+1 < len(record.Fields) && record.Fields[i+1].Tag == "961" {
			following = &record.Fields[i+1]
		}
		orders = append(orders, orderFromFields(f, following))
	}
	return orders
}

func orderFromFields(fixed, variable *marc.Field) Order {
	order := Order{
		OrderCode1: fixed.Get("c"),
		OrderCode2: fixed.Get("d"),
		OrderCode3: fixed.Get("e"),
		OrderCode4: fixed.Get("f"),
		Format:     fixed.Get("g"),
		OrderType:  fixed.Get("i"),
		Status:     fixed.Get("m"),
		Copies:     fixed.Get("o"),
		CreateDate: fixed.Get("q"),
		Price:      fixed.Get("s"),
		Locations:  fixed.GetAll("t"),
		Fund:       fixed.Get("u"),
		VendorCode: fixed.Get("v"),
		Lang:       fixed.Get("w"),
		Country:    fixed.Get("x"),
		OrderID:    normalizeBibID(fixed.Get("z")),
	}
	for _, loc := range order.Locations {
		order.Branches = append(order.Branches, branchCode(loc))
		order.Shelves = append(order.Shelves, shelfCode(loc))
	}
	if variable != nil {
		order.InternalNote = variable.Get("d")
		order.SelectorNote = variable.Get("f")
		order.VendorNotes = variable.Get("h")
		order.VendorTitleNo = variable.Get("i")
		order.VarFieldISBN = variable.Get("l")
		order.BlanketPO = variable.Get("m")
	}
	return order
}

// branchCode returns the branch portion of a Sierra location code, e.g.
// "41afc" yields "41", "snj0f" yields "sn".
func branchCode(loc string) string {
	if len(loc) >= 2 {
		return loc[:2]
	}
	return loc
}

// shelfCode returns the shelf portion of a Sierra location code, e.g.
// "41afc" yields "fc".
func shelfCode(loc string) string {
	if len(loc) >= 5 {
		return loc[3:5]
	}
	return ""
}

// Fields renders the order back into a 960/961 field pair. The 961 is
// omitted when the order carries no variable-field data.
func (o *Order) Fields() []marc.Field {
	fixed := marc.Field{Tag: "960", Ind1: " ", Ind2: " "}
	appendSubfield(&fixed, "c", o.OrderCode1)
	appendSubfield(&fixed, "d", o.OrderCode2)
	appendSubfield(&fixed, "e", o.OrderCode3)
	appendSubfield(&fixed, "f", o.OrderCode4)
	appendSubfield(&fixed, "g", o.Format)
	appendSubfield(&fixed, "i", o.OrderType)
	appendSubfield(&fixed, "m", o.Status)
	appendSubfield(&fixed, "o", o.Copies)
	appendSubfield(&fixed, "q", o.CreateDate)
	appendSubfield(&fixed, "s", o.Price)
	for _, loc := range o.Locations {
		appendSubfield(&fixed, "t", loc)
	}
	appendSubfield(&fixed, "u", o.Fund)
	appendSubfield(&fixed, "v", o.VendorCode)
	appendSubfield(&fixed, "w", o.Lang)
	appendSubfield(&fixed, "x", o.Country)
	appendSubfield(&fixed, "z", o.OrderID)

	variable := marc.Field{Tag: "961", Ind1: " ", Ind2: " "}
	appendSubfield(&variable, "d", o.InternalNote)
	appendSubfield(&variable, "f", o.SelectorNote)
	appendSubfield(&variable, "h", o.VendorNotes)
	appendSubfield(&variable, "i", o.VendorTitleNo)
	appendSubfield(&variable, "l", o.VarFieldISBN)
	appendSubfield(&variable, "m", o.BlanketPO)

	fields := []marc.Field{fixed}
	if len(variable.Subfields) > 0 {
		fields = append(fields, variable)
	}
	return fields
}

func appendSubfield(f *marc.Field, code, value string) {
	if value == "" {
		return
	}
	f.Subfields = append(f.Subfields, marc.Subfield{Code: code, Value: value})
}

// ApplyTemplate overlays template data onto the order. Only fields the
// template actually sets overwrite existing values, so applying the same
// template twice is a no-op.
func (o *Order) ApplyTemplate(t *Template) {
	if t == nil {
		return
	}
	overlay(&o.BlanketPO, t.BlanketPO)
	overlay(&o.Country, t.Country)
	overlay(&o.Format, t.Format)
	overlay(&o.Fund, t.Fund)
	overlay(&o.InternalNote, t.InternalNote)
	overlay(&o.Lang, t.Lang)
	overlay(&o.OrderCode1, t.OrderCode1)
	overlay(&o.OrderCode2, t.OrderCode2)
	overlay(&o.OrderCode3, t.OrderCode3)
	overlay(&o.OrderCode4, t.OrderCode4)
	overlay(&o.OrderType, t.OrderType)
	overlay(&o.SelectorNote, t.SelectorNote)
	overlay(&o.Status, t.Status)
	overlay(&o.VendorCode, t.VendorCode)
	overlay(&o.VendorNotes, t.VendorNotes)
	overlay(&o.VendorTitleNo, t.VendorTitleNo)
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
