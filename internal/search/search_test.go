package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/carsharing-system/internal/model"
)

func fleet() []model.Vehicle {
	return []model.Vehicle{
		{ID: 1, Brand: "Audi", Model: "A5", Type: model.VehicleTypeSedan, DailyFee: 70000, Inventory: 3},
		{ID: 2, Brand: "BMW", Model: "X5", Type: model.VehicleTypeSUV, DailyFee: 90000, Inventory: 1},
		{ID: 3, Brand: "Audi", Model: "Q7", Type: model.VehicleTypeSUV, DailyFee: 90000, Inventory: 2},
		{ID: 4, Brand: "Skoda", Model: "Octavia", Type: model.VehicleTypeUniversal, DailyFee: 40000},
		{ID: 5, Brand: "Audi", Model: "A4", Type: model.VehicleTypeSedan, DailyFee: 60000, Deleted: true},
		{ID: 6, Brand: "audi", Model: "A3", Type: model.VehicleTypeHatchback, DailyFee: 50000},
	}
}

func matchIDs(t *testing.T, f Filter) []int64 {
	t.Helper()

	q, err := Build(f)
	require.NoError(t, err)

	var ids []int64
	for _, v := range fleet() {
		if q.Match(v) {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

func TestBuild_Match(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{
			name:   "empty filter returns every vehicle that is not deleted",
			filter: Filter{},
			want:   []int64{1, 2, 3, 4, 6},
		},
		{
			name:   "brand match is exact",
			filter: Filter{Brands: []string{"Audi"}},
			want:   []int64{1, 3},
		},
		{
			name:   "values of one attribute are ORed",
			filter: Filter{Brands: []string{"Audi", "BMW"}},
			want:   []int64{1, 2, 3},
		},
		{
			name:   "attributes are ANDed",
			filter: Filter{Brands: []string{"Audi", "BMW"}, Types: []model.VehicleType{model.VehicleTypeSUV}},
			want:   []int64{2, 3},
		},
		{
			name:   "daily fee",
			filter: Filter{DailyFees: []model.Money{90000}, Models: []string{"Q7", "A5"}},
			want:   []int64{3},
		},
		{
			name:   "deleted vehicle never matches",
			filter: Filter{Models: []string{"A4"}},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchIDs(t, tt.filter))
		})
	}
}

func TestQuery_Where(t *testing.T) {
	q, err := Build(Filter{})
	require.NoError(t, err)

	where, args := q.Where()
	assert.Equal(t, "NOT is_deleted", where)
	assert.Empty(t, args)

	q, err = Build(Filter{
		Brands:    []string{"Audi", "BMW"},
		Types:     []model.VehicleType{model.VehicleTypeSUV},
		DailyFees: []model.Money{90000},
	})
	require.NoError(t, err)

	where, args = q.Where()
	assert.Equal(t, "NOT is_deleted AND brand = ANY($1) AND vehicle_type = ANY($2) AND daily_fee = ANY($3)", where)
	assert.Equal(t, []any{[]string{"Audi", "BMW"}, []string{"SUV"}, []int64{90000}}, args)
}

func TestZeroQueryExcludesDeleted(t *testing.T) {
	var q Query

	where, _ := q.Where()
	assert.Equal(t, "NOT is_deleted", where)
	assert.False(t, q.Match(model.Vehicle{Deleted: true}))
	assert.True(t, q.Match(model.Vehicle{}))
}

func TestUnknownAttributeIsConfigurationError(t *testing.T) {
	_, err := buildFor(Filter{Brands: []string{"Audi"}}, []Attribute{AttrBrand, Attribute(42)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
	assert.Contains(t, err.Error(), "attribute(42)")
}

func TestAttributeString(t *testing.T) {
	assert.Equal(t, "brand", AttrBrand.String())
	assert.Equal(t, "model", AttrModel.String())
	assert.Equal(t, "type", AttrType.String())
	assert.Equal(t, "dailyFee", AttrDailyFee.String())
}

func TestFilterEmpty(t *testing.T) {
	assert.True(t, Filter{}.Empty())
	assert.False(t, Filter{Models: []string{"A5"}}.Empty())
}
