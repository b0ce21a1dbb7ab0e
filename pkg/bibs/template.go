package bibs

import (
	"fmt"

	"github.com/bookops/overload/pkg/errors"
)

// Template is a reusable set of order values applied to every order in a
// batch, together with the matchpoints the batch should be matched on.
// A zero value in any order field means "leave the record's value alone".
type Template struct {
	ID    int64
	Name  string
	Agent string

	BlanketPO     string
	Country       string
	Format        string
	Fund          string
	InternalNote  string
	Lang          string
	OrderCode1    string
	OrderCode2    string
	OrderCode3    string
	OrderCode4    string
	OrderType     string
	SelectorNote  string
	Status        string
	VendorCode    string
	VendorNotes   string
	VendorTitleNo string

	Matchpoints Matchpoints
}

// Validate checks that the template can be stored and used for matching.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: template name is required", errors.ErrInvalidInput)
	}
	if t.Agent == "" {
		return fmt.Errorf("%w: template agent is required", errors.ErrInvalidInput)
	}
	if t.Matchpoints.Primary == "" {
		return fmt.Errorf("%w: template %q", errors.ErrMatchpointsRequired, t.Name)
	}
	for _, mp := range t.Matchpoints.Ordered() {
		if _, err := ParseMatchpoint(string(mp)); err != nil {
			return err
		}
	}
	return nil
}
