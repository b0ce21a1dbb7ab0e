package marc

// ItemFields returns the record's item fields for the given tag. Only fields
// with a blank first indicator and the expected second indicator qualify,
// which filters out vendor-specific variants sharing the tag.
func (r *Record) ItemFields(tag, ind2 string) []*Field {
	var fields []*Field
	for i := range r.Fields {
		f := &r.Fields[i]
		if f.Tag == tag && f.Ind1 == " " && f.Ind2 == ind2 {
			fields = append(fields, f)
		}
	}
	return fields
}

// Barcodes returns every item barcode (subfield i) found in the given tags,
// in record order.
func (r *Record) Barcodes(tags ...string) []string {
	var barcodes []string
	for _, f := range r.GetFields(tags...) {
		for _, value := range f.GetAll("i") {
			if value != "" {
				barcodes = append(barcodes, value)
			}
		}
	}
	return barcodes
}
