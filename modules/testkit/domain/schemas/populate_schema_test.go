package schemas_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/testkit/domain/schemas"
)

func TestParsePopulateRequest_Valid(t *testing.T) {
	payload := []byte(`{
		"version": "1.0",
		"tenant": {"name": "Lodge Test Tenant", "domain": "test.localhost"},
		"data": {
			"properties": [{"name": "Seaside Hotel", "_ref": "main"}],
			"jobRoles": [{"name": "Housekeeping", "_ref": "housekeeping"}],
			"employees": [{
				"firstName": "Alice",
				"lastName": "Nguyen",
				"email": "alice@lodge.test",
				"property": "@properties.main",
				"jobRoles": ["@jobRoles.housekeeping"],
				"_ref": "alice"
			}],
			"scheduling": {
				"periods": [{
					"property": "@properties.main",
					"startDate": "2026-11-01",
					"endDate": "2026-11-07",
					"_ref": "week"
				}],
				"shiftPlans": [{
					"period": "@periods.week",
					"jobRole": "@jobRoles.housekeeping",
					"startAt": "2026-11-02T09:00:00Z",
					"endAt": "2026-11-02T17:00:00Z",
					"assignees": ["@employees.alice"]
				}]
			}
		},
		"options": {"returnIds": true}
	}`)

	req, err := schemas.ParsePopulateRequest(payload)
	require.NoError(t, err)
	require.Equal(t, "Lodge Test Tenant", req.Tenant.Name)
	require.Len(t, req.Data.Employees, 1)
	require.Equal(t, "@properties.main", req.Data.Employees[0].PropertyRef)
	require.Len(t, req.Data.Scheduling.ShiftPlans, 1)
	require.True(t, req.Options.ReturnIds)
}

func TestParsePopulateRequest_DefaultsVersion(t *testing.T) {
	req, err := schemas.ParsePopulateRequest([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, "1.0", req.Version)
}

func TestParsePopulateRequest_RejectsBadPayloads(t *testing.T) {
	for name, payload := range map[string]string{
		"bad json":                 `{`,
		"unsupported version":      `{"version": "2.0"}`,
		"tenant without name":      `{"tenant": {"domain": "x"}}`,
		"employee without email":   `{"data": {"employees": [{"firstName": "A", "property": "@properties.main"}]}}`,
		"user without role":        `{"data": {"users": [{"email": "a@b.c"}]}}`,
		"period without dates":     `{"data": {"scheduling": {"periods": [{"property": "@properties.main"}]}}}`,
		"shift without times":      `{"data": {"scheduling": {"shiftPlans": [{"period": "@periods.w", "jobRole": "@jobRoles.h"}]}}}`,
		"session without user":     `{"data": {"sessions": [{"token": "t"}]}}`,
		"availability without day": `{"data": {"scheduling": {"availability": [{"employee": "@employees.a", "property": "@properties.main"}]}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := schemas.ParsePopulateRequest([]byte(payload))
			require.Error(t, err)
		})
	}
}
