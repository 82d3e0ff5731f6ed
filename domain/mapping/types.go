package mapping

import (
	"fmt"
	"strings"
	"time"

	"chillerdash/domain/core"
	"chillerdash/domain/upload"
)

// Role is the semantic meaning assigned to an uploaded column.
type Role string

const (
	RoleTime        Role = "time"
	RolePower       Role = "power"
	RoleFlow        Role = "flow"
	RoleSupplyTemp  Role = "supply_temp"
	RoleReturnTemp  Role = "return_temp"
	RoleCoolingLoad Role = "cooling_load"
)

// RoleSpec describes one dropdown of the column-mapping form.
type RoleSpec struct {
	Role     Role
	Label    string
	Hint     string
	Required bool
	Numeric  bool
}

// Roles lists the six dropdowns in display order.
var Roles = []RoleSpec{
	{Role: RoleTime, Label: "Timestamp", Hint: "Date/time of each reading", Required: true},
	{Role: RolePower, Label: "Chiller Power (kW)", Hint: "Electrical input power", Required: true, Numeric: true},
	{Role: RoleFlow, Label: "Chilled Water Flow", Hint: "GPM or L/s", Numeric: true},
	{Role: RoleSupplyTemp, Label: "Supply Temperature", Hint: "Chilled water supply", Numeric: true},
	{Role: RoleReturnTemp, Label: "Return Temperature", Hint: "Chilled water return", Numeric: true},
	{Role: RoleCoolingLoad, Label: "Cooling Load (RT)", Hint: "Refrigeration tons", Numeric: true},
}

// Spec returns the RoleSpec for r.
func Spec(r Role) (RoleSpec, bool) {
	for _, s := range Roles {
		if s.Role == r {
			return s, true
		}
	}
	return RoleSpec{}, false
}

// ColumnMapping assigns uploaded columns to roles.
type ColumnMapping struct {
	ID       core.ID         `json:"id"`
	UploadID core.ID         `json:"upload_id"`
	Columns  map[Role]string `json:"columns"`
	Tariff   string          `json:"tariff,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty mapping for an upload.
func New(uploadID core.ID) *ColumnMapping {
	now := time.Now()
	return &ColumnMapping{
		ID:        core.NewID(),
		UploadID:  uploadID,
		Columns:   make(map[Role]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Set assigns column to role. A blank column clears the role.
func (m *ColumnMapping) Set(role Role, column string) {
	column = strings.TrimSpace(column)
	if column == "" {
		delete(m.Columns, role)
		return
	}
	m.Columns[role] = column
}

// Column returns the column assigned to role, or "".
func (m *ColumnMapping) Column(role Role) string {
	return m.Columns[role]
}

// ValidationError lists every problem found in a mapping.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", core.ErrInvalidMapping, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return core.ErrInvalidMapping
}

// Validate checks the mapping against the columns of its upload.
func (m *ColumnMapping) Validate(columns []upload.ColumnInfo) error {
	byName := make(map[string]upload.ColumnInfo, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}

	var problems []string
	usedBy := make(map[string]Role)

	for _, spec := range Roles {
		col, ok := m.Columns[spec.Role]
		if !ok {
			if spec.Required {
				problems = append(problems, fmt.Sprintf("%s column is required", spec.Label))
			}
			continue
		}

		info, exists := byName[col]
		if !exists {
			problems = append(problems, fmt.Sprintf("%s: column %q is not in the uploaded file", spec.Label, col))
			continue
		}

		if prev, dup := usedBy[col]; dup {
			prevSpec, _ := Spec(prev)
			problems = append(problems, fmt.Sprintf("column %q is assigned to both %s and %s", col, prevSpec.Label, spec.Label))
			continue
		}
		usedBy[col] = spec.Role

		if spec.Numeric && info.Kind != upload.KindNumeric {
			problems = append(problems, fmt.Sprintf("%s: column %q must be numeric (found %s)", spec.Label, col, info.Kind))
		}
		if spec.Role == RoleTime && info.Kind != upload.KindDateTime && info.Kind != upload.KindText {
			problems = append(problems, fmt.Sprintf("%s: column %q must contain dates or times (found %s)", spec.Label, col, info.Kind))
		}
	}

	for role := range m.Columns {
		if _, known := Spec(role); !known {
			problems = append(problems, fmt.Sprintf("unknown role %q", role))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Suggest pre-selects columns whose names look like a role, for the initial dropdown state.
func Suggest(columns []upload.ColumnInfo) map[Role]string {
	keywords := map[Role][]string{
		RoleTime:        {"timestamp", "datetime", "date", "time"},
		RolePower:       {"kw", "power"},
		RoleFlow:        {"flow", "gpm", "l/s"},
		RoleSupplyTemp:  {"supply", "chws", "lwt"},
		RoleReturnTemp:  {"return", "chwr", "ewt"},
		RoleCoolingLoad: {"load", "rt", "tons", "tonnage"},
	}

	suggested := make(map[Role]string)
	taken := make(map[string]bool)
	for _, spec := range Roles {
		for _, kw := range keywords[spec.Role] {
			for _, c := range columns {
				if taken[c.Name] {
					continue
				}
				if spec.Numeric && c.Kind != upload.KindNumeric {
					continue
				}
				if !matchesKeyword(c.Name, kw) {
					continue
				}
				suggested[spec.Role] = c.Name
				taken[c.Name] = true
				break
			}
			if _, ok := suggested[spec.Role]; ok {
				break
			}
		}
	}
	return suggested
}

// matchesKeyword matches kw against the whole name or one of its words.
func matchesKeyword(name, kw string) bool {
	lower := strings.ToLower(name)
	if lower == kw {
		return true
	}
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '(' || r == ')' || r == '[' || r == ']' || r == '.'
	})
	for _, f := range fields {
		if f == kw {
			return true
		}
	}
	return false
}
