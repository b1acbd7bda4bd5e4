package user

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Finance-Director ")
	require.NoError(t, err)
	require.Equal(t, RoleFinanceDirector, r)

	_, err = ParseRole("finance_director")
	require.Error(t, err)
	_, err = ParseRole("")
	require.Error(t, err)
}
