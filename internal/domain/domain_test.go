package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleEmploye.IsValid())
	assert.True(t, RoleClient.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestRole_Staff(t *testing.T) {
	assert.True(t, RoleAdmin.Staff())
	assert.True(t, RoleEmploye.Staff())
	assert.False(t, RoleClient.Staff())
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 micro", `"2025-03-04T10:20:30.000000Z"`, time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)},
		{"rfc3339", `"2025-03-04T10:20:30Z"`, time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)},
		{"sql", `"2025-03-04 10:20:30"`, time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)},
		{"date", `"2025-03-04"`, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_NullAndEmpty(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())
}

func TestTimestamp_Invalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"04/03/2025"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := Timestamp{Time: time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)}
	data, err := json.Marshal(ts)
	require.NoError(t, err)

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Time))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestTimestamp_SameDay(t *testing.T) {
	ts := Timestamp{Time: time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC)}

	assert.True(t, ts.SameDay(time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)))
	assert.False(t, ts.SameDay(time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)))
	assert.False(t, Timestamp{}.SameDay(time.Now()))
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range ValidOrderStatuses() {
		assert.True(t, IsValidOrderStatus(s), s)
	}
	assert.False(t, IsValidOrderStatus("pending"))
}

func TestChatMessage_SenderDisplay(t *testing.T) {
	named := ChatMessage{EmeteurType: RoleEmploye, Sender: &User{NomComplet: "awa diop ndiaye"}}
	assert.Equal(t, "awa diop ndiaye", named.SenderName())
	assert.Equal(t, "ADN", named.SenderInitials())

	anonymous := ChatMessage{EmeteurType: RoleClient}
	assert.Equal(t, "Client", anonymous.SenderName())
	assert.Equal(t, "C", anonymous.SenderInitials())
}

func TestPromotionInput_DatesOrdered(t *testing.T) {
	assert.True(t, PromotionInput{DateDebut: "2025-01-01", DateFin: "2025-01-31"}.DatesOrdered())
	assert.True(t, PromotionInput{DateDebut: "2025-01-01", DateFin: "2025-01-01"}.DatesOrdered())
	assert.False(t, PromotionInput{DateDebut: "2025-02-01", DateFin: "2025-01-31"}.DatesOrdered())
}

func TestProduct_CloneCopiesPromotions(t *testing.T) {
	p := Product{ID: 1, Promotions: []Promotion{{ID: 2, Nom: "Soldes"}}}
	c := p.Clone()
	c.Promotions[0].Nom = "changed"
	assert.Equal(t, "Soldes", p.Promotions[0].Nom)
}
