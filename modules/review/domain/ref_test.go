package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID_DecodesNumbersAndStrings(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"abc-1","c":null}`), &v))
	require.Equal(t, ID("42"), v.A)
	require.Equal(t, ID("abc-1"), v.B)
	require.True(t, v.C.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":42,"b":"abc-1","c":""}`, string(out))
}

func TestRef_DecodesBothShapes(t *testing.T) {
	var v struct {
		Legacy   *Ref `json:"legacy"`
		Detailed *Ref `json:"detailed"`
		Missing  *Ref `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"legacy":" Sales ","detailed":{"id":7,"name":"Finance"},"missing":null}`), &v))

	require.Equal(t, &Ref{Name: "Sales"}, v.Legacy)
	require.Equal(t, &Ref{ID: "7", Name: "Finance"}, v.Detailed)
	require.Nil(t, v.Missing)
	require.Equal(t, "", RefLabel(v.Missing))
	require.Equal(t, "7", (&Ref{ID: "7"}).Label())
}

func TestLevel_DecodesRankOrObject(t *testing.T) {
	var levels []Level
	require.NoError(t, json.Unmarshal([]byte(`[3,"4",{"id":"l1","name":"Director","rank":5},{"name":"Lead","level":2}]`), &levels))

	require.Equal(t, 3, levels[0].Rank)
	require.Equal(t, 4, levels[1].Rank)
	require.Equal(t, Level{ID: "l1", Name: "Director", Rank: 5}, levels[2])
	require.Equal(t, 2, levels[3].Rank)

	var bad Level
	require.Error(t, json.Unmarshal([]byte(`"senior"`), &bad))
}
