package mapping

import (
	"errors"
	"testing"

	"chillerdash/domain/core"
	"chillerdash/domain/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plantColumns() []upload.ColumnInfo {
	return []upload.ColumnInfo{
		{Name: "Timestamp", Kind: upload.KindDateTime},
		{Name: "Chiller kW", Kind: upload.KindNumeric},
		{Name: "CHW Flow (GPM)", Kind: upload.KindNumeric},
		{Name: "CHWS Temp", Kind: upload.KindNumeric},
		{Name: "CHWR Temp", Kind: upload.KindNumeric},
		{Name: "Load RT", Kind: upload.KindNumeric},
		{Name: "Operator", Kind: upload.KindText},
	}
}

func TestValidateAcceptsCompleteMapping(t *testing.T) {
	m := New(core.NewID())
	m.Set(RoleTime, "Timestamp")
	m.Set(RolePower, "Chiller kW")
	m.Set(RoleFlow, "CHW Flow (GPM)")
	m.Set(RoleSupplyTemp, "CHWS Temp")
	m.Set(RoleReturnTemp, "CHWR Temp")
	m.Set(RoleCoolingLoad, "Load RT")

	assert.NoError(t, m.Validate(plantColumns()))
}

func TestValidateOnlyRequiresTimeAndPower(t *testing.T) {
	m := New(core.NewID())
	m.Set(RoleTime, "Timestamp")
	m.Set(RolePower, "Chiller kW")
	m.Set(RoleFlow, "   ")

	assert.NoError(t, m.Validate(plantColumns()))
	assert.Equal(t, "", m.Column(RoleFlow))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	m := New(core.NewID())
	m.Set(RoleFlow, "Operator")
	m.Set(RoleSupplyTemp, "Missing Column")
	m.Set(RoleReturnTemp, "CHWR Temp")
	m.Set(RoleCoolingLoad, "CHWR Temp")

	err := m.Validate(plantColumns())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidMapping))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 5)
	assert.Contains(t, err.Error(), "Timestamp column is required")
	assert.Contains(t, err.Error(), "Chiller Power (kW) column is required")
	assert.Contains(t, err.Error(), `column "Operator" must be numeric`)
	assert.Contains(t, err.Error(), `"Missing Column" is not in the uploaded file`)
	assert.Contains(t, err.Error(), `assigned to both Return Temperature and Cooling Load (RT)`)
}

func TestValidateTimeMustNotBeNumeric(t *testing.T) {
	m := New(core.NewID())
	m.Set(RoleTime, "Load RT")
	m.Set(RolePower, "Chiller kW")

	err := m.Validate(plantColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must contain dates or times")
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	m := New(core.NewID())
	m.Set(RoleTime, "Timestamp")
	m.Set(RolePower, "Chiller kW")
	m.Columns[Role("efficiency")] = "Load RT"

	err := m.Validate(plantColumns())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "efficiency"`)
}

func TestSuggest(t *testing.T) {
	got := Suggest(plantColumns())

	assert.Equal(t, "Timestamp", got[RoleTime])
	assert.Equal(t, "Chiller kW", got[RolePower])
	assert.Equal(t, "CHW Flow (GPM)", got[RoleFlow])
	assert.Equal(t, "CHWS Temp", got[RoleSupplyTemp])
	assert.Equal(t, "CHWR Temp", got[RoleReturnTemp])
	assert.Equal(t, "Load RT", got[RoleCoolingLoad])
}

func TestSuggestSkipsNonNumericForNumericRoles(t *testing.T) {
	got := Suggest([]upload.ColumnInfo{
		{Name: "power", Kind: upload.KindText},
		{Name: "date", Kind: upload.KindText},
	})

	_, ok := got[RolePower]
	assert.False(t, ok)
	assert.Equal(t, "date", got[RoleTime])
}

func TestRolesOrder(t *testing.T) {
	require.Len(t, Roles, 6)
	assert.Equal(t, RoleTime, Roles[0].Role)
	assert.Equal(t, RoleCoolingLoad, Roles[5].Role)
}
