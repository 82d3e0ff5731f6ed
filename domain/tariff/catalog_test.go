package tariff

import (
	"errors"
	"testing"

	"chillerdash/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Residential", "Business"}, c.CategoryNames())

	groups, err := c.Groups("business")
	require.NoError(t, err)
	assert.Len(t, groups, 10)
	assert.Equal(t, "Non Domestic", groups[0].Name)
	assert.Len(t, groups[0].Tariffs, 6)
	assert.Empty(t, groups[9].Tariffs)
	assert.Equal(t, "Backfeed", groups[9].Name)

	assert.Len(t, c.All(), 7)
}

func TestFind(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	e, err := c.Find("medium voltage tou")
	require.NoError(t, err)
	assert.Equal(t, "Business", e.Category)
	assert.Equal(t, "Non Domestic", e.Group)
	assert.Equal(t, "Medium Voltage", e.Tariff.Voltage)
	assert.InDelta(t, 0.3132, e.Tariff.Rates["Peak Rate"], 1e-9)
	assert.InDelta(t, 30.19, e.Tariff.Rates["Capacity Rate"], 1e-9)
	assert.Equal(t, "kW (peak only)", e.Tariff.Rules.ChargeCapacityBy)
	assert.True(t, e.Tariff.Rules.HasPeakSplit)
	assert.True(t, e.Tariff.Rules.AFAApplicable)

	domestic, err := c.Find("Domestic Block Tariff")
	require.NoError(t, err)
	assert.True(t, domestic.Tariff.Rules.Tiered)
	assert.Empty(t, domestic.Tariff.Rates)
	assert.Equal(t, "", domestic.Tariff.Rules.ChargeCapacityBy)

	_, err = c.Find("Ultra Voltage")
	assert.True(t, errors.Is(err, core.ErrTariffNotFound))
}

func TestGroupsUnknownCategory(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Groups("Industrial")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestSortedRates(t *testing.T) {
	tr := Tariff{Rates: map[string]float64{"Retail Rate": 20, "Capacity Rate": 0.0883, "Energy Rate": 0.2703}}
	rates := tr.SortedRates()
	require.Len(t, rates, 3)
	assert.Equal(t, "Capacity Rate", rates[0].Name)
	assert.Equal(t, "Energy Rate", rates[1].Name)
	assert.Equal(t, "Retail Rate", rates[2].Name)
}

func TestParseRejectsEmptyCatalog(t *testing.T) {
	_, err := Parse([]byte("categories: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("categories: [\n"))
	assert.Error(t, err)
}
