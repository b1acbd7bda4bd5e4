package request

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayloadNormalize_LeavesCallerDataAlone(t *testing.T) {
	classes := map[string]string{"channel": "  social "}
	participants := []int64{7, 3, 7}
	p := Payload{
		Kind:            " Budget ",
		Title:           " Offsite ",
		Classifications: classes,
		Participants:    participants,
	}

	p.Normalize()

	require.Equal(t, KindBudget, p.Kind)
	require.Equal(t, "Offsite", p.Title)
	require.Equal(t, UrgencyNormal, p.Urgency)
	require.Equal(t, map[string]string{"channel": "social"}, p.Classifications)
	require.Equal(t, []int64{3, 7}, p.Participants)

	require.Equal(t, "  social ", classes["channel"])
	require.Equal(t, []int64{7, 3, 7}, participants)
}
