package providers

import (
	"annolist/internal/models"
	"annolist/internal/structures"
	"fmt"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	// slices of structs are checked one element at a time
	names := make(map[string]struct{}, len(cv.conf.Datasources))
	for i := range cv.conf.Datasources {
		ds := &cv.conf.Datasources[i]
		dv := validate.Struct(ds)
		if !dv.Validate() {
			return fmt.Errorf("datasources[%d]: %w", i, dv.Errors)
		}
		if ds.Name == models.NativeDatasource {
			return fmt.Errorf("datasources[%d]: name %q is reserved", i, ds.Name)
		}
		if _, dup := names[ds.Name]; dup {
			return fmt.Errorf("datasources[%d]: duplicate name %q", i, ds.Name)
		}
		names[ds.Name] = struct{}{}
	}

	if sel := cv.conf.Panel.SelectedDatasource; sel != "" && sel != models.NativeDatasource {
		if _, ok := names[sel]; !ok {
			return fmt.Errorf("panel.selectedDatasource: unknown datasource %q", sel)
		}
	}
	return nil
}
