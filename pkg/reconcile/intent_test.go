package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessIntentValidate(t *testing.T) {
	valid := AccessIntent{
		Database:   "sales",
		Table:      "orders",
		Accesses:   []string{"select"},
		Principals: PrincipalSet{Users: []string{"alice"}},
	}

	testCases := []struct {
		name    string
		mutate  func(in *AccessIntent)
		wantErr string
	}{
		{
			name:   "valid intent passes",
			mutate: func(in *AccessIntent) {},
		},
		{
			name:    "empty principals rejected",
			mutate:  func(in *AccessIntent) { in.Principals = PrincipalSet{} },
			wantErr: "user, group or role",
		},
		{
			name:    "wildcard database rejected",
			mutate:  func(in *AccessIntent) { in.Database = "*" },
			wantErr: "database *",
		},
		{
			name:    "no accesses rejected",
			mutate:  func(in *AccessIntent) { in.Accesses = nil },
			wantErr: "access kind",
		},
		{
			name:    "unknown access rejected",
			mutate:  func(in *AccessIntent) { in.Accesses = []string{"select", "fly"} },
			wantErr: "unknown access",
		},
		{
			name:   "access vocabulary is case-insensitive",
			mutate: func(in *AccessIntent) { in.Accesses = []string{"SELECT", "Drop"} },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			intent := valid
			tc.mutate(&intent)

			err := intent.Validate(OpGrant)

			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestMaskIntentValidate(t *testing.T) {
	valid := MaskIntent{
		Database:   "sales",
		Table:      "orders",
		Columns:    []string{"card_no"},
		MaskType:   "MASK_HASH",
		Principals: PrincipalSet{Groups: []string{"analysts"}},
	}

	testCases := []struct {
		name    string
		mutate  func(in *MaskIntent)
		wantErr string
	}{
		{
			name:   "valid intent passes",
			mutate: func(in *MaskIntent) {},
		},
		{
			name:    "wildcard table rejected",
			mutate:  func(in *MaskIntent) { in.Table = "*" },
			wantErr: "table *",
		},
		{
			name:    "wildcard column rejected",
			mutate:  func(in *MaskIntent) { in.Columns = []string{"*"} },
			wantErr: "column *",
		},
		{
			name:    "no columns rejected",
			mutate:  func(in *MaskIntent) { in.Columns = nil },
			wantErr: "at least one column",
		},
		{
			name:    "unknown mask type rejected",
			mutate:  func(in *MaskIntent) { in.MaskType = "MASK_SHOW_LAST_4" },
			wantErr: "mask type",
		},
		{
			name:   "MASK_NONE is valid",
			mutate: func(in *MaskIntent) { in.MaskType = "MASK_NONE" },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			intent := valid
			tc.mutate(&intent)

			err := intent.Validate(OpGrant)

			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRowFilterIntentValidate(t *testing.T) {
	valid := RowFilterIntent{
		Database:   "sales",
		Table:      "orders",
		FilterExpr: "region = 'eu'",
		Principals: PrincipalSet{Users: []string{"alice"}},
	}

	t.Run("valid intent passes", func(t *testing.T) {
		assert.NoError(t, valid.Validate(OpGrant))
	})

	t.Run("blank filter rejected", func(t *testing.T) {
		intent := valid
		intent.FilterExpr = "   "
		assert.ErrorContains(t, intent.Validate(OpGrant), "blank")
	})

	t.Run("wildcard database rejected", func(t *testing.T) {
		intent := valid
		intent.Database = "*"
		assert.ErrorContains(t, intent.Validate(OpGrant), "database or table *")
	})
}
