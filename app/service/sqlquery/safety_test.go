package sqlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{
			name: "allow-listed select",
			sql:  "SELECT name, location FROM virtual_machines ORDER BY name LIMIT 50;",
			want: true,
		},
		{
			name: "allow-listed join",
			sql: "SELECT vm.name, ni.private_ip FROM virtual_machines AS vm " +
				"LEFT OUTER JOIN network_interfaces AS ni ON vm.resource_id = ni.vm_resource_id LIMIT 50;",
			want: true,
		},
		{
			name: "schema-qualified allow-listed table",
			sql:  "SELECT name FROM public.virtual_machines LIMIT 10;",
			want: true,
		},
		{
			name: "update blocked",
			sql:  "UPDATE virtual_machines SET power_state = 'running';",
			want: false,
		},
		{
			name: "delete blocked",
			sql:  "DELETE FROM virtual_machines;",
			want: false,
		},
		{
			name: "drop blocked",
			sql:  "DROP TABLE virtual_machines;",
			want: false,
		},
		{
			name: "truncate blocked",
			sql:  "TRUNCATE installed_software;",
			want: false,
		},
		{
			name: "keyword hidden in mixed case",
			sql:  "InSeRt INTO virtual_machines VALUES (1);",
			want: false,
		},
		{
			name: "non-allow-listed table",
			sql:  "SELECT * FROM pg_catalog.pg_tables;",
			want: false,
		},
		{
			name: "allow-listed select joining secret table",
			sql:  "SELECT vm.name FROM virtual_machines vm JOIN secrets s ON s.vm = vm.resource_id;",
			want: false,
		},
		{
			name: "multi-line statement still gated",
			sql:  "SELECT name\nFROM\n  pg_shadow\nLIMIT 1;",
			want: false,
		},
		{
			name: "column tripping a keyword substring",
			sql:  "SELECT time_created FROM virtual_machines LIMIT 5;",
			want: false,
		},
		{
			name: "empty statement",
			sql:  "",
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSafeSQL(tc.sql))
		})
	}
}

func TestFallbackQueryPassesOwnGate(t *testing.T) {
	assert.True(t, IsSafeSQL(fallbackQuery))
}
