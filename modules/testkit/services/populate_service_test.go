package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lodgecrew/lodgecrew/modules/core/domain/aggregates/user"
	"github.com/lodgecrew/lodgecrew/modules/testkit/domain/schemas"
)

func newBareService() *PopulateService {
	return &PopulateService{
		refs:    make(map[string]uuid.UUID),
		created: make(map[string]map[string]string),
	}
}

func TestPopulateService_ResolveReferences(t *testing.T) {
	s := newBareService()
	id := uuid.New()
	s.track("properties", "main", "Seaside Hotel", id)

	got, err := s.resolve("properties", "@properties.main")
	require.NoError(t, err)
	require.Equal(t, id, got)

	got, err = s.resolve("properties", "main")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = s.resolve("properties", "@properties.missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unresolved reference")
}

func TestPopulateService_TrackWithoutRefUsesKey(t *testing.T) {
	s := newBareService()
	id := uuid.New()
	s.track("employees", "", "alice@lodge.test", id)

	got, err := s.resolve("employees", "alice@lodge.test")
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.Equal(t, id.String(), s.created["employees"]["alice@lodge.test"])
	require.Equal(t, 1, s.stats.TotalCreated)
}

func TestPopulateService_ActorPrefersSeededNonEmployee(t *testing.T) {
	s := newBareService()

	employeeUser := uuid.New()
	scheduler := uuid.New()
	second := uuid.New()

	s.rememberActor(employeeUser, user.RoleEmployee)
	require.Equal(t, uuid.Nil, s.actorID)

	s.rememberActor(scheduler, user.RoleScheduler)
	s.rememberActor(second, user.RoleTenantAdmin)
	require.Equal(t, scheduler, s.actor())
}

func TestPopulateService_ActorFallsBackToSyntheticID(t *testing.T) {
	s := newBareService()
	first := s.actor()
	require.NotEqual(t, uuid.Nil, first)
	require.Equal(t, first, s.actor())
}

func TestRefLeaf(t *testing.T) {
	require.Equal(t, "main", refLeaf("properties", "@properties.main"))
	require.Equal(t, "main", refLeaf("properties", "main"))
	require.Equal(t, "week", refLeaf("periods", "@periods.week"))
}

func TestGetScenario_AllScenariosValidate(t *testing.T) {
	s := &TestDataService{}
	for _, name := range []string{"minimal", "scheduling", "comprehensive"} {
		scenario, ok := s.getScenario(name)
		require.True(t, ok, name)
		require.NoError(t, scenario.Validate(), name)
	}
	_, ok := s.getScenario("unknown")
	require.False(t, ok)
}

func TestGetScenario_SchedulingWeekStartsOnMonday(t *testing.T) {
	s := &TestDataService{}
	scenario, ok := s.getScenario("scheduling")
	require.True(t, ok)
	require.Len(t, scenario.Data.Scheduling.Periods, 1)

	start, err := time.Parse(time.DateOnly, scenario.Data.Scheduling.Periods[0].StartDate)
	require.NoError(t, err)
	require.Equal(t, time.Monday, start.Weekday())

	end, err := time.Parse(time.DateOnly, scenario.Data.Scheduling.Periods[0].EndDate)
	require.NoError(t, err)
	require.Equal(t, 6, int(end.Sub(start).Hours()/24))
}

func TestGetScenario_ComprehensiveLayersOnScheduling(t *testing.T) {
	s := &TestDataService{}
	base, ok := s.getScenario("scheduling")
	require.True(t, ok)
	full, ok := s.getScenario("comprehensive")
	require.True(t, ok)

	require.Greater(t, len(full.Data.Properties), len(base.Data.Properties))
	require.Greater(t, len(full.Data.Scheduling.Periods), len(base.Data.Scheduling.Periods))

	var published bool
	for _, p := range full.Data.Scheduling.Periods {
		if p.Status == "PUBLISHED" {
			published = true
		}
	}
	require.True(t, published)
}
